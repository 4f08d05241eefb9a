package suite

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/mobile-harness/pkg/harness"
	"github.com/devicelab-dev/mobile-harness/pkg/pages"
)

const switchesGroup = "SwitchesTest"

func openSwitches(t *harness.T) error {
	list, err := t.LoginDefault()
	if err != nil {
		return err
	}
	t.Switches, err = list.ToSwitches()
	return err
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

// toggleCase flips switch n and checks its state changed.
func toggleCase(n int) harness.Case {
	return harness.Case{
		Name:        fmt.Sprintf("testSwitch%dToggle", n),
		Group:       switchesGroup,
		Description: fmt.Sprintf("Verify Switch %d toggle", n),
		Setup:       openSwitches,
		Run: func(t *harness.T) error {
			before, err := t.Switches.IsOn(n)
			if err != nil {
				return err
			}
			t.Logger().Info("Switch %d initial state: %s", n, onOff(before))
			if err := t.Switches.Toggle(n); err != nil {
				return err
			}
			t.Capture(fmt.Sprintf("Switch%d_Toggled", n))
			after, err := t.Switches.IsOn(n)
			if err != nil {
				return err
			}
			t.Logger().Info("Switch %d new state: %s", n, onOff(after))
			if err := t.Check(before != after, "Switch state should change after toggle"); err != nil {
				return err
			}
			t.Logger().Pass("Switch %d toggled successfully", n)
			return nil
		},
	}
}

// allSwitches checks every switch reads want.
func allSwitches(t *harness.T, want bool) error {
	for n := 1; n <= pages.SwitchCount; n++ {
		on, err := t.Switches.IsOn(n)
		if err != nil {
			return err
		}
		if err := t.Check(on == want, "Switch %d should be %s", n, onOff(want)); err != nil {
			return err
		}
	}
	return nil
}

func switchesCases() []harness.Case {
	cases := []harness.Case{
		{
			Name:        "testSwitchesTabDisplayed",
			Group:       switchesGroup,
			Description: "Verify Switches tab is displayed",
			Setup:       openSwitches,
			Run: func(t *harness.T) error {
				t.Capture("SwitchesTab_Initial")
				s := t.Switches
				exps := []expectation{expect(s.IsLoaded, "Switches tab should be displayed")}
				for n := 1; n <= pages.SwitchCount; n++ {
					n := n
					exps = append(exps, expect(func() bool { return s.IsSwitchDisplayed(n) }, fmt.Sprintf("Switch %d should be displayed", n)))
				}
				exps = append(exps, expect(s.IsSaveDisplayed, "Save button should be displayed"))
				if err := verify(t, exps...); err != nil {
					return err
				}
				t.Logger().Pass("All switches displayed")
				return nil
			},
		},
	}
	for n := 1; n <= pages.SwitchCount; n++ {
		cases = append(cases, toggleCase(n))
	}
	return append(cases,
		harness.Case{
			Name:        "testSaveButtonSavesStates",
			Group:       switchesGroup,
			Description: "Verify Save button functionality",
			Setup:       openSwitches,
			Run: func(t *harness.T) error {
				if err := t.Switches.TurnOnAll(); err != nil {
					return err
				}
				t.Capture("All_Switches_ON")
				if err := t.Switches.Save(); err != nil {
					return err
				}
				t.Capture("After_Save")
				state, err := t.Switches.SaveStateText()
				if err != nil {
					return err
				}
				t.Logger().Info("Save state text: %s", state)
				if err := t.Check(strings.Contains(state, "ON"), "State text should contain ON after saving, got %q", state); err != nil {
					return err
				}
				t.Logger().Pass("Switch states saved")
				return nil
			},
		},
		harness.Case{
			Name:        "testTurnAllSwitchesOn",
			Group:       switchesGroup,
			Description: "Verify turning all switches ON",
			Setup:       openSwitches,
			Run: func(t *harness.T) error {
				if err := t.Switches.TurnOnAll(); err != nil {
					return err
				}
				t.Capture("All_ON")
				if err := allSwitches(t, true); err != nil {
					return err
				}
				t.Logger().Pass("All switches turned ON")
				return nil
			},
		},
		harness.Case{
			Name:        "testTurnAllSwitchesOff",
			Group:       switchesGroup,
			Description: "Verify turning all switches OFF",
			Setup:       openSwitches,
			Run: func(t *harness.T) error {
				if err := t.Switches.TurnOnAll(); err != nil {
					return err
				}
				if err := t.Switches.TurnOffAll(); err != nil {
					return err
				}
				t.Capture("All_OFF")
				if err := allSwitches(t, false); err != nil {
					return err
				}
				t.Logger().Pass("All switches turned OFF")
				return nil
			},
		},
	)
}
