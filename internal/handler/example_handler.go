package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classroom-api/pkg/i18n"
	"github.com/noah-isme/classroom-api/pkg/response"
)

// Welcome godoc
// @Summary Localized welcome message
// @Tags System
// @Produce json
// @Param lng query string false "Language (en, fr, rw)"
// @Success 200 {object} response.Envelope
// @Router /example [get]
func Welcome(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"message":  i18n.T(c, "welcome"),
		"language": i18n.Language(c),
	}, nil)
}
