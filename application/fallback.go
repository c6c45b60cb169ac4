package application

import (
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/felixgeelhaar/goap-go/domain/goap"
)

// Idle returns a fallback behavior that does nothing and succeeds.
func Idle() bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return bt.Success, nil
	})
}

// ActionLeaf adapts a GOAP action into a behavior tree leaf.
func ActionLeaf(agent goap.Agent, action goap.Action) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return statusOf(safeRun(action, agent)), nil
	})
}

// FallbackSequence runs actions in order as a behavior tree sequence. The
// agent ticks it while it has nothing better to do.
func FallbackSequence(agent goap.Agent, actions ...goap.Action) bt.Node {
	children := make([]bt.Node, 0, len(actions))
	for _, a := range actions {
		children = append(children, ActionLeaf(agent, a))
	}
	return bt.New(bt.Sequence, children...)
}

// FallbackSelector tries actions in order until one does not fail.
func FallbackSelector(agent goap.Agent, actions ...goap.Action) bt.Node {
	children := make([]bt.Node, 0, len(actions))
	for _, a := range actions {
		children = append(children, ActionLeaf(agent, a))
	}
	return bt.New(bt.Selector, children...)
}

func statusOf(r goap.Result) bt.Status {
	switch r {
	case goap.Success:
		return bt.Success
	case goap.Running:
		return bt.Running
	default:
		return bt.Failure
	}
}

// safeRun runs action, converting a panic into Failure.
func safeRun(action goap.Action, agent goap.Agent) (result goap.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = goap.Failure
		}
	}()
	return action.Run(agent)
}
