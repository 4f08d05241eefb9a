package suite

import (
	"fmt"

	"github.com/devicelab-dev/mobile-harness/pkg/harness"
	"github.com/devicelab-dev/mobile-harness/pkg/pages"
)

const buttonsGroup = "ButtonsTest"

func openButtons(t *harness.T) error {
	list, err := t.LoginDefault()
	if err != nil {
		return err
	}
	t.Buttons, err = list.ToButtons()
	return err
}

func buttonsCases() []harness.Case {
	return []harness.Case{
		{
			Name:        "testButtonsTabDisplayed",
			Group:       buttonsGroup,
			Description: "Verify all button elements are displayed",
			Setup:       openButtons,
			Run: func(t *harness.T) error {
				t.Capture("ButtonsTab_Initial")
				b := t.Buttons
				exps := []expectation{expect(b.IsLoaded, "Buttons tab should be displayed")}
				for n := 1; n <= pages.ButtonCount; n++ {
					n := n
					exps = append(exps, expect(func() bool { return b.IsButtonDisplayed(n) }, fmt.Sprintf("Button %d should be displayed", n)))
				}
				exps = append(exps, expect(b.IsResetDisplayed, "Reset button should be displayed"))
				if err := verify(t, exps...); err != nil {
					return err
				}
				t.Logger().Pass("All buttons displayed")
				return nil
			},
		},
		{
			Name:        "testButtonClickAndReset",
			Group:       buttonsGroup,
			Description: "Verify buttons can be clicked and reset works",
			Setup:       openButtons,
			Run: func(t *harness.T) error {
				if err := t.Buttons.ClickAll(); err != nil {
					return err
				}
				t.Capture("All_Buttons_Clicked")
				if err := t.Buttons.ClickReset(); err != nil {
					return err
				}
				t.Capture("After_Reset")
				t.Logger().Pass("Button click and reset functionality verified")
				return nil
			},
		},
		{
			Name:        "testButtonText",
			Group:       buttonsGroup,
			Description: "Verify button text labels are correct",
			Setup:       openButtons,
			Run: func(t *harness.T) error {
				for n := 1; n <= pages.ButtonCount; n++ {
					text, err := t.Buttons.ButtonText(n)
					if err != nil {
						return err
					}
					t.Logger().Info("Button %d Text: %s", n, text)
					if err := harness.Equal(t, text, fmt.Sprintf("Button %d", n), fmt.Sprintf("button %d text", n)); err != nil {
						return err
					}
				}
				t.Logger().Pass("Button texts verified")
				return nil
			},
		},
	}
}
