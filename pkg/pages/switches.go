package pages

import (
	"fmt"

	"github.com/devicelab-dev/mobile-harness/pkg/locator"
)

var (
	switchesSave      = locator.ID("com.example.trusttest:id/saveButton")
	switchesSaveState = locator.ID("com.example.trusttest:id/saveStateText")
)

// SwitchCount is the number of switches on the Switches tab.
const SwitchCount = 3

// SwitchesPage is the Switches tab.
type SwitchesPage struct {
	tk Toolkit
}

func switchLocator(n int) (locator.Locator, error) {
	if n < 1 || n > SwitchCount {
		return locator.Locator{}, fmt.Errorf("switch %d does not exist (1-%d)", n, SwitchCount)
	}
	return locator.ID(fmt.Sprintf("com.example.trusttest:id/switch%d", n)), nil
}

func (p *SwitchesPage) Name() string { return "SwitchesPage" }

// IsLoaded waits for Switch 1.
func (p *SwitchesPage) IsLoaded() bool { return p.tk.held(p.loaded()) }

func (p *SwitchesPage) loaded() (bool, error) {
	loc, _ := switchLocator(1)
	return p.tk.probe(loc, PageLoadTimeout)
}

// Toggle clicks switch n (1-based).
func (p *SwitchesPage) Toggle(n int) error {
	loc, err := switchLocator(n)
	if err != nil {
		return err
	}
	p.tk.log().Step("Toggling Switch %d", n)
	return p.tk.Actions.Click(loc)
}

// IsOn reads switch n's checked attribute.
func (p *SwitchesPage) IsOn(n int) (bool, error) {
	loc, err := switchLocator(n)
	if err != nil {
		return false, err
	}
	checked, err := p.tk.Actions.Attribute(loc, "checked")
	if err != nil {
		return false, err
	}
	return checked == "true", nil
}

// TurnOnAll toggles every switch that is off.
func (p *SwitchesPage) TurnOnAll() error {
	p.tk.log().Step("Turning ON all switches")
	return p.setAll(true)
}

// TurnOffAll toggles every switch that is on.
func (p *SwitchesPage) TurnOffAll() error {
	p.tk.log().Step("Turning OFF all switches")
	return p.setAll(false)
}

func (p *SwitchesPage) setAll(on bool) error {
	for n := 1; n <= SwitchCount; n++ {
		current, err := p.IsOn(n)
		if err != nil {
			return err
		}
		if current != on {
			if err := p.Toggle(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save clicks Save and waits SaveDelay for the state text to update.
func (p *SwitchesPage) Save() error {
	p.tk.log().Step("Clicking Save button")
	if err := p.tk.Actions.Click(switchesSave); err != nil {
		return err
	}
	p.tk.Pause(p.tk.SaveDelay)
	return nil
}

// SaveStateText returns the text shown after saving.
func (p *SwitchesPage) SaveStateText() (string, error) {
	return p.tk.Actions.Text(switchesSaveState)
}

// IsSwitchDisplayed probes switch n.
func (p *SwitchesPage) IsSwitchDisplayed(n int) bool {
	loc, err := switchLocator(n)
	if err != nil {
		return false
	}
	return p.tk.displayed(loc, DisplayTimeout)
}

func (p *SwitchesPage) IsSaveDisplayed() bool {
	return p.tk.displayed(switchesSave, DisplayTimeout)
}

func (p *SwitchesPage) ToList() (*ListPage, error)       { return toList(p.tk) }
func (p *SwitchesPage) ToButtons() (*ButtonsPage, error) { return toButtons(p.tk) }
func (p *SwitchesPage) ToInput() (*InputPage, error)     { return toInput(p.tk) }
