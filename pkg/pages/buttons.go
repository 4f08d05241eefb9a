package pages

import (
	"fmt"

	"github.com/devicelab-dev/mobile-harness/pkg/locator"
)

var buttonsReset = locator.ID("com.example.trusttest:id/resetButton")

// ButtonCount is the number of numbered buttons on the Buttons tab.
const ButtonCount = 3

// ButtonsPage is the Buttons tab.
type ButtonsPage struct {
	tk Toolkit
}

func buttonLocator(n int) (locator.Locator, error) {
	if n < 1 || n > ButtonCount {
		return locator.Locator{}, fmt.Errorf("button %d does not exist (1-%d)", n, ButtonCount)
	}
	return locator.ID(fmt.Sprintf("com.example.trusttest:id/button%d", n)), nil
}

func (p *ButtonsPage) Name() string { return "ButtonsPage" }

// IsLoaded waits for Button 1.
func (p *ButtonsPage) IsLoaded() bool { return p.tk.held(p.loaded()) }

func (p *ButtonsPage) loaded() (bool, error) {
	loc, _ := buttonLocator(1)
	return p.tk.probe(loc, PageLoadTimeout)
}

// ClickButton clicks button n (1-based).
func (p *ButtonsPage) ClickButton(n int) error {
	loc, err := buttonLocator(n)
	if err != nil {
		return err
	}
	p.tk.log().Step("Clicking Button %d", n)
	return p.tk.Actions.Click(loc)
}

// ClickAll clicks buttons 1 to 3 in order.
func (p *ButtonsPage) ClickAll() error {
	p.tk.log().Step("Clicking all buttons")
	for n := 1; n <= ButtonCount; n++ {
		if err := p.ClickButton(n); err != nil {
			return err
		}
	}
	return nil
}

// ClickReset clicks the reset button.
func (p *ButtonsPage) ClickReset() error {
	p.tk.log().Step("Clicking Reset button")
	return p.tk.Actions.Click(buttonsReset)
}

// ButtonText returns the label of button n.
func (p *ButtonsPage) ButtonText(n int) (string, error) {
	loc, err := buttonLocator(n)
	if err != nil {
		return "", err
	}
	return p.tk.Actions.Text(loc)
}

// IsButtonDisplayed probes button n.
func (p *ButtonsPage) IsButtonDisplayed(n int) bool {
	loc, err := buttonLocator(n)
	if err != nil {
		return false
	}
	return p.tk.displayed(loc, DisplayTimeout)
}

func (p *ButtonsPage) IsResetDisplayed() bool {
	return p.tk.displayed(buttonsReset, DisplayTimeout)
}

func (p *ButtonsPage) ToList() (*ListPage, error)         { return toList(p.tk) }
func (p *ButtonsPage) ToSwitches() (*SwitchesPage, error) { return toSwitches(p.tk) }
func (p *ButtonsPage) ToInput() (*InputPage, error)       { return toInput(p.tk) }
