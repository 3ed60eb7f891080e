package cfg

import "solis/report"

// loopScope is one entry of the loop scope stack: the pair of blocks that
// break and continue statements inside the loop resolve to, along with counts
// of how often each was taken.
type loopScope struct {
	breakBlock    int
	continueBlock int

	noBreaks    int
	noContinues int
}

// LoopScopes is the stack of active loop scopes of the function being
// lowered.  The zero value is ready to use.
type LoopScopes struct {
	scopes []loopScope
}

// Enter pushes a loop scope with the given break and continue targets.
func (ls *LoopScopes) Enter(breakBlock, continueBlock int) {
	ls.scopes = append(ls.scopes, loopScope{
		breakBlock:    breakBlock,
		continueBlock: continueBlock,
	})
}

// Leave pops the innermost loop scope and returns how many break and continue
// statements resolved against it.  Lowering uses the break count to decide
// whether the block after the loop is reachable at all.
func (ls *LoopScopes) Leave() (noBreaks, noContinues int) {
	if len(ls.scopes) == 0 {
		report.ReportICE("loop scope stack underflow on leave")
	}

	top := ls.scopes[len(ls.scopes)-1]
	ls.scopes = ls.scopes[:len(ls.scopes)-1]
	return top.noBreaks, top.noContinues
}

// DoBreak resolves a break statement against the innermost loop scope and
// returns its break target.  The resolver guarantees break only appears
// inside a loop, so an empty stack is an internal invariant violation.
func (ls *LoopScopes) DoBreak() int {
	if len(ls.scopes) == 0 {
		report.ReportICE("break outside of any loop scope")
	}

	top := &ls.scopes[len(ls.scopes)-1]
	top.noBreaks++
	return top.breakBlock
}

// DoContinue resolves a continue statement against the innermost loop scope
// and returns its continue target.
func (ls *LoopScopes) DoContinue() int {
	if len(ls.scopes) == 0 {
		report.ReportICE("continue outside of any loop scope")
	}

	top := &ls.scopes[len(ls.scopes)-1]
	top.noContinues++
	return top.continueBlock
}
