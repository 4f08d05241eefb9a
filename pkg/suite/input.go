package suite

import (
	"github.com/devicelab-dev/mobile-harness/pkg/harness"
)

const inputGroup = "InputTest"

func openInput(t *harness.T) error {
	list, err := t.LoginDefault()
	if err != nil {
		return err
	}
	t.Input, err = list.ToInput()
	return err
}

// enterCase enters value and captures the result under shot.
func enterCase(name, description, value, shot string) harness.Case {
	return harness.Case{
		Name:        name,
		Group:       inputGroup,
		Description: description,
		Setup:       openInput,
		Run: func(t *harness.T) error {
			if err := t.Input.EnterValue(value); err != nil {
				return err
			}
			t.Capture(shot)
			got, err := t.Input.Value()
			if err != nil {
				return err
			}
			if err := harness.Equal(t, got, value, "input value"); err != nil {
				return err
			}
			t.Logger().Pass("Value %s entered", value)
			return nil
		},
	}
}

func inputCases() []harness.Case {
	return []harness.Case{
		{
			Name:        "testInputTabDisplayed",
			Group:       inputGroup,
			Description: "Verify Input tab is displayed",
			Setup:       openInput,
			Run: func(t *harness.T) error {
				t.Capture("InputTab_Initial")
				in := t.Input
				if err := verify(t,
					expect(in.IsLoaded, "Input tab should be displayed"),
					expect(in.IsFieldDisplayed, "Input field should be displayed"),
					expect(in.IsFieldEnabled, "Input field should be enabled"),
				); err != nil {
					return err
				}
				t.Logger().Pass("Input tab displayed correctly")
				return nil
			},
		},
		{
			Name:        "testInputNumericValue",
			Group:       inputGroup,
			Description: "Verify input field accepts numeric value",
			Setup:       openInput,
			Run: func(t *harness.T) error {
				if err := t.Input.ClearValue(); err != nil {
					return err
				}
				return enterCase("", "", "12345", "Numeric_Value_Entered").Run(t)
			},
		},
		enterCase("testInputLargeNumber", "Verify input field accepts large numbers", "999999", "Large_Number_Entered"),
		{
			Name:        "testInputFieldClear",
			Group:       inputGroup,
			Description: "Verify input field can be cleared",
			Setup:       openInput,
			Run: func(t *harness.T) error {
				if err := t.Input.EnterValue("123"); err != nil {
					return err
				}
				t.Capture("Before_Clear")
				if err := t.Input.ClearValue(); err != nil {
					return err
				}
				t.Capture("After_Clear")
				got, err := t.Input.Value()
				if err != nil {
					return err
				}
				if err := harness.Equal(t, got, "", "input value after clear"); err != nil {
					return err
				}
				t.Logger().Pass("Input field cleared")
				return nil
			},
		},
		enterCase("testInputZeroValue", "Verify entering zero value", "0", "Zero_Value"),
		enterCase("testInputDecimalValue", "Verify entering decimal values", "123.45", "Decimal_Value"),
	}
}
