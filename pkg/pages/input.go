package pages

import "github.com/devicelab-dev/mobile-harness/pkg/locator"

var inputValue = locator.ID("com.example.trusttest:id/inputValue")

// InputPage is the Input tab.
type InputPage struct {
	tk Toolkit
}

func (p *InputPage) Name() string { return "InputPage" }

// IsLoaded waits for the input field.
func (p *InputPage) IsLoaded() bool { return p.tk.held(p.loaded()) }

func (p *InputPage) loaded() (bool, error) {
	return p.tk.probe(inputValue, PageLoadTimeout)
}

// EnterValue replaces the field's content with value.
func (p *InputPage) EnterValue(value string) error {
	p.tk.log().Step("Entering value: %s", value)
	return p.tk.Actions.Type(inputValue, value)
}

// Value returns the field's current text.
func (p *InputPage) Value() (string, error) {
	return p.tk.Actions.Text(inputValue)
}

// ClearValue empties the field.
func (p *InputPage) ClearValue() error {
	p.tk.log().Step("Clearing input value")
	return p.tk.Actions.Clear(inputValue)
}

func (p *InputPage) IsFieldDisplayed() bool {
	return p.tk.displayed(inputValue, DisplayTimeout)
}

// IsFieldEnabled reports whether the field accepts input. A failed read is
// logged at WARN and reads as disabled.
func (p *InputPage) IsFieldEnabled() bool {
	return p.tk.held(p.tk.Actions.IsEnabled(inputValue))
}

func (p *InputPage) ToList() (*ListPage, error)         { return toList(p.tk) }
func (p *InputPage) ToButtons() (*ButtonsPage, error)   { return toButtons(p.tk) }
func (p *InputPage) ToSwitches() (*SwitchesPage, error) { return toSwitches(p.tk) }
