package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/models"
	"storefront-service/services"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, *services.ServiceError)
}

type AuthController struct {
	auth Authenticator
}

func NewAuthController(auth Authenticator) *AuthController {
	return &AuthController{auth: auth}
}

func (ac *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, serr := ac.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if serr != nil {
		ctx.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	ctx.JSON(http.StatusOK, result)
}
