package auth

import (
	"net/http"

	"carelog/backend/foundation/web"
	internalauth "carelog/backend/internal/auth"
	"carelog/backend/internal/repository/postgres/admin"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type Controller struct {
	admin Admin
	auth  *internalauth.Auth
}

func NewController(admin Admin, auth *internalauth.Auth) *Controller {
	return &Controller{admin: admin, auth: auth}
}

func (uc Controller) SignIn(c *web.Context) error {
	var data admin.SignInRequest

	err := c.BindFunc(&data, "Email", "Password")
	if err != nil {
		return c.RespondError(err)
	}

	detail, err := uc.admin.GetByEmail(c.Ctx, data.Email)
	if err != nil {
		return c.RespondError(err)
	}

	if detail.Password == nil || detail.Role == nil {
		return c.RespondError(&web.Error{
			Err:    errors.New("admin account is not usable"),
			Status: http.StatusUnauthorized,
		})
	}

	if err = bcrypt.CompareHashAndPassword([]byte(*detail.Password), []byte(data.Password)); err != nil {
		return c.RespondError(web.NewRequestError(errors.New("incorrect email or password"), http.StatusUnauthorized))
	}

	accessToken, refreshToken, err := uc.auth.GenTokens(detail.ID, *detail.Role)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
		"error": nil,
	}, http.StatusOK)
}

func (uc Controller) RefreshToken(c *web.Context) error {
	var data admin.RefreshTokenRequest

	err := c.BindFunc(&data, "RefreshToken")
	if err != nil {
		return c.RespondError(err)
	}

	claims, err := uc.auth.ValidateRefreshToken(data.RefreshToken)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	// The account may have been deleted since the token was issued.
	detail, err := uc.admin.GetById(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(err)
	}

	accessToken, refreshToken, err := uc.auth.GenTokens(detail.ID, claims.Role)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "generating new tokens"), http.StatusInternalServerError))
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"data": map[string]string{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
		"error": nil,
	}, http.StatusOK)
}
