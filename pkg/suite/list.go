package suite

import (
	"strings"

	"github.com/devicelab-dev/mobile-harness/pkg/harness"
)

const listGroup = "ListTest"

// minListItems is the number of rows the List tab must render.
const minListItems = 10

func loginOnly(t *harness.T) error {
	_, err := t.LoginDefault()
	return err
}

func listCases() []harness.Case {
	return []harness.Case{
		{
			Name:        "testListTabDisplayed",
			Group:       listGroup,
			Description: "Verify List tab is displayed after login",
			Setup:       loginOnly,
			Run: func(t *harness.T) error {
				t.Capture("ListTab_Displayed")
				if err := t.Check(t.List.IsLoaded(), "List tab should be displayed"); err != nil {
					return err
				}
				instructions, err := t.List.InstructionsText()
				if err != nil {
					return err
				}
				if err := t.Check(strings.Contains(instructions, "Explore"), "Instructions should contain 'Explore', got %q", instructions); err != nil {
					return err
				}
				t.Logger().Pass("List tab displayed correctly")
				return nil
			},
		},
		{
			Name:        "testListItemsDisplayed",
			Group:       listGroup,
			Description: "Verify list items are displayed",
			Setup:       loginOnly,
			Run: func(t *harness.T) error {
				count, err := t.List.ItemCount()
				if err != nil {
					return err
				}
				t.Logger().Info("Found %d list items", count)
				if err := t.Check(count > 0, "Should have at least one list item"); err != nil {
					return err
				}
				if err := t.Check(count >= minListItems, "Should have at least %d items visible, got %d", minListItems, count); err != nil {
					return err
				}
				t.Logger().Pass("List items displayed")
				return nil
			},
		},
		{
			Name:        "testNavigationToButtonsTab",
			Group:       listGroup,
			Description: "Verify navigation to Buttons tab",
			Setup:       loginOnly,
			Run: func(t *harness.T) error {
				buttons, err := t.List.ToButtons()
				if err != nil {
					return err
				}
				if err := t.Check(buttons.IsLoaded(), "Should navigate to Buttons tab"); err != nil {
					return err
				}
				t.Capture("ButtonsTab_FromList")
				t.Logger().Pass("Navigation to Buttons tab works")
				return nil
			},
		},
	}
}
