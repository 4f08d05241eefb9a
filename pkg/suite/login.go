package suite

import (
	"time"

	"github.com/devicelab-dev/mobile-harness/pkg/harness"
)

const loginGroup = "LoginTest"

// emptySubmitDelay is how long the form is given to react to an empty submit.
const emptySubmitDelay = 2 * time.Second

func loginCases() []harness.Case {
	return []harness.Case{
		{
			Name:        "testLoginPageDisplayed",
			Group:       loginGroup,
			Description: "Verify Login page is displayed after app launch",
			Run: func(t *harness.T) error {
				t.Capture("LoginPage_Initial")
				login := t.Start()
				if err := verify(t,
					expect(login.IsLoaded, "Login page should be displayed"),
					expect(login.IsUsernameFieldDisplayed, "Username field should be displayed"),
					expect(login.IsPasswordFieldDisplayed, "Password field should be displayed"),
					expect(login.IsSubmitButtonDisplayed, "Submit button should be displayed"),
				); err != nil {
					return err
				}
				t.Logger().Pass("Login page elements verified")
				return nil
			},
		},
		{
			Name:        "testLoginWithValidCredentials",
			Group:       loginGroup,
			Description: "Verify successful login with valid credentials",
			Run: func(t *harness.T) error {
				login := t.Start()
				if err := login.EnterUsername(harness.DefaultUsername); err != nil {
					return err
				}
				t.Capture("Username_Entered")
				if err := login.EnterPassword(harness.DefaultPassword); err != nil {
					return err
				}
				t.Capture("Password_Entered")
				list, err := login.Submit()
				if err != nil {
					return err
				}
				t.Toolkit().Pause(t.Toolkit().LoginDelay)
				t.Capture("After_Login")
				if err := t.Check(list.IsLoaded(), "Should navigate to List page after successful login"); err != nil {
					return err
				}
				t.Logger().Pass("Login successful")
				return nil
			},
		},
		{
			Name:        "testLoginWithEmptyCredentials",
			Group:       loginGroup,
			Description: "Verify login with empty credentials",
			Run: func(t *harness.T) error {
				login := t.Start()
				if err := login.ClearUsername(); err != nil {
					return err
				}
				if err := login.ClearPassword(); err != nil {
					return err
				}
				if _, err := login.Submit(); err != nil {
					return err
				}
				t.Toolkit().Pause(emptySubmitDelay)
				t.Capture("Empty_Credentials_Submit")
				if err := t.Check(login.IsLoaded(), "Should stay on login page with empty credentials"); err != nil {
					return err
				}
				t.Logger().Pass("Empty credentials handled correctly")
				return nil
			},
		},
	}
}
