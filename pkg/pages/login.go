package pages

import "github.com/devicelab-dev/mobile-harness/pkg/locator"

var (
	loginUsername = locator.ID("com.example.trusttest:id/editTextUsername")
	loginPassword = locator.ID("com.example.trusttest:id/editTextPassword")
	loginSubmit   = locator.ID("com.example.trusttest:id/buttonSubmit")
	loginTitle    = locator.XPath("//android.widget.TextView[@text='Login']")
)

// LoginPage is the login form shown at app start.
type LoginPage struct {
	tk Toolkit
}

func (p *LoginPage) Name() string { return "LoginPage" }

// IsLoaded waits up to LoginLoadTimeout for the title.
func (p *LoginPage) IsLoaded() bool { return p.tk.held(p.loaded()) }

func (p *LoginPage) loaded() (bool, error) {
	return p.tk.probe(loginTitle, LoginLoadTimeout)
}

// EnterUsername types the username.
func (p *LoginPage) EnterUsername(username string) error {
	p.tk.log().Step("Entering username: %s", username)
	return p.tk.Actions.Type(loginUsername, username)
}

// EnterPassword types the password. The value is never logged.
func (p *LoginPage) EnterPassword(password string) error {
	p.tk.log().Step("Entering password")
	return p.tk.Actions.Type(loginPassword, password)
}

// ClearUsername clears the username field.
func (p *LoginPage) ClearUsername() error {
	return p.tk.Actions.Clear(loginUsername)
}

// ClearPassword clears the password field.
func (p *LoginPage) ClearPassword() error {
	return p.tk.Actions.Clear(loginPassword)
}

// Submit clicks the submit button.
func (p *LoginPage) Submit() (*ListPage, error) {
	p.tk.log().Step("Clicking Submit button")
	if err := p.tk.Actions.Click(loginSubmit); err != nil {
		return nil, err
	}
	return &ListPage{tk: p.tk}, nil
}

// Login fills in the form, submits it and waits LoginDelay for the app.
func (p *LoginPage) Login(username, password string) (*ListPage, error) {
	p.tk.log().Info("Performing login with username: %s", username)
	if err := p.EnterUsername(username); err != nil {
		return nil, err
	}
	if err := p.EnterPassword(password); err != nil {
		return nil, err
	}
	if err := p.tk.Actions.HideKeyboard(); err != nil {
		return nil, err
	}
	list, err := p.Submit()
	if err != nil {
		return nil, err
	}
	p.tk.log().Info("Waiting for login to complete...")
	p.tk.Pause(p.tk.LoginDelay)
	p.tk.log().Pass("Login completed")
	return list, nil
}

func (p *LoginPage) IsUsernameFieldDisplayed() bool {
	return p.tk.displayed(loginUsername, DisplayTimeout)
}

func (p *LoginPage) IsPasswordFieldDisplayed() bool {
	return p.tk.displayed(loginPassword, DisplayTimeout)
}

func (p *LoginPage) IsSubmitButtonDisplayed() bool {
	return p.tk.displayed(loginSubmit, DisplayTimeout)
}
