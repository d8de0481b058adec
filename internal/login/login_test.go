package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/mocks"
)

const testBaseURL = "https://rewards.example.com/"

func TestSignInSkipsWhenAlreadyAuthenticated(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("Navigate", mock.Anything, testBaseURL+"Signin/").Return(nil)
	page.On("WaitVisible", mock.Anything, portalLandmark, mock.Anything).Return(nil)

	f := NewFlow(zaptest.NewLogger(t), page, testBaseURL)
	err := f.SignIn(context.Background(), schemas.Account{Username: "a@example.com"})
	require.NoError(t, err)

	page.AssertNotCalled(t, "Type", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignInRunsInteractiveFlow(t *testing.T) {
	page := new(mocks.MockPage)
	// First landmark probe fails, second (post sign-in) succeeds.
	page.On("Navigate", mock.Anything, testBaseURL+"Signin/").Return(nil)
	page.On("WaitVisible", mock.Anything, portalLandmark, mock.Anything).
		Return(errors.New("not visible")).Once()
	page.On("WaitVisible", mock.Anything, portalLandmark, mock.Anything).Return(nil)

	page.On("Navigate", mock.Anything, liveLoginURL).Return(nil)
	page.On("WaitVisible", mock.Anything, emailSelector, mock.Anything).Return(nil)
	page.On("WaitVisible", mock.Anything, passwordSelector, mock.Anything).Return(nil)
	page.On("Type", mock.Anything, emailSelector, "a@example.com").Return(nil)
	page.On("Type", mock.Anything, passwordSelector, "hunter2").Return(nil)
	page.On("Sleep", mock.Anything, mock.Anything).Return(nil)
	page.On("Click", mock.Anything, submitSelector).Return(nil)
	page.On("DismissPrompts", mock.Anything).Return(nil)

	f := NewFlow(zaptest.NewLogger(t), page, testBaseURL)
	err := f.SignIn(context.Background(), schemas.Account{
		Username: "a@example.com",
		Password: "hunter2",
	})
	require.NoError(t, err)
	page.AssertCalled(t, "Type", mock.Anything, passwordSelector, "hunter2")
	page.AssertCalled(t, "DismissPrompts", mock.Anything)
}

func TestSignInFailsWhenPortalNeverAppears(t *testing.T) {
	page := new(mocks.MockPage)
	page.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	page.On("WaitVisible", mock.Anything, portalLandmark, mock.Anything).
		Return(errors.New("not visible"))
	page.On("WaitVisible", mock.Anything, emailSelector, mock.Anything).Return(nil)
	page.On("WaitVisible", mock.Anything, passwordSelector, mock.Anything).Return(nil)
	page.On("Type", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	page.On("Sleep", mock.Anything, mock.Anything).Return(nil)
	page.On("Click", mock.Anything, submitSelector).Return(nil)
	page.On("DismissPrompts", mock.Anything).Return(nil)

	f := NewFlow(zaptest.NewLogger(t), page, testBaseURL)
	err := f.SignIn(context.Background(), schemas.Account{Username: "a@example.com", Password: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not reach the portal")
}

func TestGeneratedCodeValidates(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	now := time.Now()

	code, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, totp.Validate(code, secret))
}
