package quiz

// Navigator tracks the current question index over an ordered question
// list. Movement clamps to [0, size-1] and is a no-op at the bounds.
type Navigator struct {
	index int
	size  int
}

func NewNavigator(size int) *Navigator {
	return &Navigator{size: size}
}

// Current returns the 0-based index of the current question.
func (n *Navigator) Current() int {
	return n.index
}

func (n *Navigator) Next() {
	n.JumpTo(n.index + 1)
}

func (n *Navigator) Previous() {
	n.JumpTo(n.index - 1)
}

// JumpTo sets the index directly, clamped to the question range. Used by
// the question-navigator UI for non-linear movement.
func (n *Navigator) JumpTo(index int) {
	if index < 0 {
		index = 0
	}
	if index > n.size-1 {
		index = n.size - 1
	}
	n.index = index
}

// AtLast reports whether the current question is the final one.
func (n *Navigator) AtLast() bool {
	return n.index == n.size-1
}
