package pages

import (
	"github.com/devicelab-dev/mobile-harness/pkg/core"
	"github.com/devicelab-dev/mobile-harness/pkg/locator"
	"github.com/devicelab-dev/mobile-harness/pkg/wait"
)

var (
	listTitle        = locator.XPath("//android.widget.TextView[@text='Test']")
	listInstructions = locator.ID("com.example.trusttest:id/instructionsText")
	listItems        = locator.ID("android:id/text1")
	listNavigateUp   = locator.XPath("//android.widget.ImageButton[@content-desc='Navigate up']")
)

const listItemClass = "android.widget.TextView"

// ListPage is the List tab, shown after login.
type ListPage struct {
	tk Toolkit
}

func (p *ListPage) Name() string { return "ListPage" }

// IsLoaded requires both the title and the instructions.
func (p *ListPage) IsLoaded() bool { return p.tk.held(p.loaded()) }

func (p *ListPage) loaded() (bool, error) {
	if ok, err := p.tk.probe(listTitle, PageLoadTimeout); !ok || err != nil {
		return false, err
	}
	return p.tk.probe(listInstructions, PageLoadTimeout)
}

// InstructionsText returns the instructions shown above the list.
func (p *ListPage) InstructionsText() (string, error) {
	return p.tk.Actions.Text(listInstructions)
}

// Items returns the list rows currently rendered.
func (p *ListPage) Items() ([]wait.Element, error) {
	return p.tk.Actions.FindAll(listItems)
}

// ItemCount returns the number of rendered rows.
func (p *ListPage) ItemCount() (int, error) {
	items, err := p.Items()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// ClickItem clicks the row showing text.
func (p *ListPage) ClickItem(text string) error {
	p.tk.log().Step("Clicking list item: %s", text)
	return p.tk.Actions.Click(locator.TextIn(listItemClass, text))
}

// ClickItemAt clicks the index-th rendered row.
func (p *ListPage) ClickItemAt(index int) error {
	p.tk.log().Step("Clicking list item at index: %d", index)
	items, err := p.Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		p.tk.log().Warn("Index out of bounds: %d", index)
		return core.ErrElementNotFound.
			WithMessage("list item index out of range").
			WithDetails(map[string]interface{}{"index": index, "count": len(items)})
	}
	return p.tk.Actions.ClickElement(items[index])
}

// IsItemDisplayed probes for the row showing text.
func (p *ListPage) IsItemDisplayed(text string) bool {
	return p.tk.displayed(locator.TextIn(listItemClass, text), DisplayTimeout)
}

// NavigateUp clicks the toolbar up button.
func (p *ListPage) NavigateUp() error {
	p.tk.log().Step("Clicking Navigate Up button")
	return p.tk.Actions.Click(listNavigateUp)
}

func (p *ListPage) ToButtons() (*ButtonsPage, error)   { return toButtons(p.tk) }
func (p *ListPage) ToSwitches() (*SwitchesPage, error) { return toSwitches(p.tk) }
func (p *ListPage) ToInput() (*InputPage, error)       { return toInput(p.tk) }
