package labeling

import (
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

// Policy selects the navigation semantics of a role.
type Policy struct {
	// SkipCompleted makes navigation skip saved indices and end the worklist once all are saved.
	SkipCompleted bool
}

func PolicyFor(role domlabel.Role) Policy {
	return Policy{SkipCompleted: !role.Reviews()}
}

type Status string

const (
	StatusActive  Status = "active"
	StatusAllDone Status = "all_done"
	StatusEmpty   Status = "empty"
)

// Controller moves a NavigationState through its worklist. It mutates the state it was given.
type Controller struct {
	policy Policy
	state  *domlabel.NavigationState
}

func NewController(policy Policy, state *domlabel.NavigationState) *Controller {
	if state.CompletedIndices == nil {
		state.CompletedIndices = map[int]bool{}
	}
	return &Controller{policy: policy, state: state}
}

func (c *Controller) Status() Status {
	switch {
	case c.state.WorklistLength <= 0:
		return StatusEmpty
	case c.state.Done:
		return StatusAllDone
	default:
		return StatusActive
	}
}

func (c *Controller) Current() int { return c.state.CurrentIndex }

// Progress returns (completed, total).
func (c *Controller) Progress() (int, int) {
	return c.state.CompletedCount(), c.state.WorklistLength
}

func (c *Controller) Next() bool {
	if c.Status() != StatusActive {
		return false
	}
	return c.moveTo(c.scan(c.state.CurrentIndex, 1))
}

func (c *Controller) Previous() bool {
	if c.Status() != StatusActive {
		return false
	}
	return c.moveTo(c.scan(c.state.CurrentIndex, -1))
}

// SaveAndNext runs save and advances only when it succeeds. A save error is returned unchanged.
func (c *Controller) SaveAndNext(save func() error) error {
	if c.Status() != StatusActive {
		return nil
	}
	if save != nil {
		if err := save(); err != nil {
			return err
		}
	}
	i := c.state.CurrentIndex
	if c.policy.SkipCompleted {
		c.state.CompletedIndices[i] = true
		if c.state.CompletedCount() >= c.state.WorklistLength {
			c.state.Done = true
			return nil
		}
	}
	c.moveTo(c.scan(i, 1))
	return nil
}

// JumpToConnection moves to the first item of connectionID. Unknown ids leave the state alone.
func (c *Controller) JumpToConnection(w Worklist, connectionID string) bool {
	if c.policy.SkipCompleted || c.Status() != StatusActive {
		return false
	}
	return c.moveTo(w.IndexOfConnection(connectionID))
}

// JumpToChunk moves to the exact (connection, chunk) item. Unknown pairs leave the state alone.
func (c *Controller) JumpToChunk(w Worklist, connectionID string, chunkID int) bool {
	if c.policy.SkipCompleted || c.Status() != StatusActive {
		return false
	}
	return c.moveTo(w.IndexOfChunk(connectionID, chunkID))
}

// scan walks circularly from i in direction dir and returns the first reachable index, or -1.
func (c *Controller) scan(i, dir int) int {
	n := c.state.WorklistLength
	if !c.policy.SkipCompleted {
		return ((i+dir)%n + n) % n
	}
	for step := 1; step < n; step++ {
		j := ((i+dir*step)%n + n) % n
		if !c.state.CompletedIndices[j] {
			return j
		}
	}
	return -1
}

func (c *Controller) moveTo(j int) bool {
	if j < 0 || j >= c.state.WorklistLength {
		return false
	}
	c.state.CurrentIndex = j
	return true
}
