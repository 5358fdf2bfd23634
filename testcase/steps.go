package testcase

import (
	"context"
	"fmt"

	"github.com/groundupworks/yksp/script"
	"github.com/groundupworks/yksp/viewclient"
)

func (c *Case) RunSteps(ctx context.Context, steps []script.Step) error {
	return c.runSteps(ctx, steps, nil)
}

func (c *Case) runSteps(ctx context.Context, steps []script.Step, current *viewclient.View) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.runStep(ctx, step, current); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Action, err)
		}
	}
	return nil
}

func (c *Case) find(sel script.Selector) (*viewclient.View, error) {
	if sel.ID != "" {
		return c.vc.FindViewByIDOrRaise(sel.ID)
	}
	return c.vc.FindViewWithTextOrRaise(sel.Text)
}

func (c *Case) findAll(sel script.Selector) []*viewclient.View {
	if sel.ID != "" {
		return c.vc.FindViewsByID(sel.ID)
	}
	return c.vc.FindViewsWithText(sel.Text)
}

func (c *Case) runStep(ctx context.Context, step script.Step, current *viewclient.View) error {
	switch step.Action {
	case script.ActionLaunch:
		return c.LaunchApp(ctx)

	case script.ActionStartActivity:
		return c.StartActivity(ctx, step.Activity, step.Package)

	case script.ActionRefresh:
		return c.RefreshScreen(ctx, step.Sleep.Std())

	case script.ActionSaveScreen:
		return c.SaveScreen(ctx, step.Tag, step.Sleep.Std())

	case script.ActionSleep:
		return c.sleep(ctx, step.Duration.Std())

	case script.ActionFind:
		_, err := c.find(step.Selector())
		return err

	case script.ActionTouch:
		view := current
		if !step.Current {
			v, err := c.find(step.Selector())
			if err != nil {
				return err
			}
			view = v
		}
		if view == nil {
			return fmt.Errorf("no current view to touch")
		}
		return view.Touch(ctx)

	case script.ActionDrag:
		from, err := c.find(*step.From)
		if err != nil {
			return err
		}
		to, err := c.find(*step.To)
		if err != nil {
			return err
		}
		duration := step.Duration
		if duration == 0 {
			duration = script.DefaultDragDuration
		}
		return c.device.Drag(ctx, from.Center(), to.Center(), duration.Std())

	case script.ActionPress:
		return c.device.PressKey(ctx, step.Key)

	case script.ActionType:
		return c.device.SendText(ctx, step.Text)

	case script.ActionAssertCount:
		found := len(c.findAll(step.Selector()))
		if found != *step.Count {
			what := step.Message
			if what == "" {
				what = "views with " + step.Selector().String()
			}
			return Failf("Found only %d %s, expected %d", found, what, *step.Count)
		}
		return nil

	case script.ActionRequirePackage:
		installed, err := c.device.PackageInstalled(ctx, step.Package)
		if err != nil {
			return err
		}
		if !installed {
			return Failf("Precondition not met. Required package %s is not installed on this device", step.Package)
		}
		return nil

	case script.ActionForEach:
		// iterate over a snapshot; nested steps may refresh the tree
		views := c.findAll(step.Selector())
		for i, v := range views {
			iteration := step.WithIndex(i)
			if err := c.runSteps(ctx, iteration.Steps, v); err != nil {
				return fmt.Errorf("iteration %d: %w", i, err)
			}
		}
		return nil
	}

	return fmt.Errorf("unknown action %q", step.Action)
}
