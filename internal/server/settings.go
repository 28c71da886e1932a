package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/glanzwerk/beleg/internal/settings/domain"
)

func (s *Server) GetSettings(c *gin.Context) {
	resp, err := s.settingsSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateSettingsRequest struct {
	CompanyName            *string `json:"company_name"`
	DefaultHourlyRateCents *int64  `json:"default_hourly_rate_cents"`
	WorkUnitMinutes        *int    `json:"work_unit_minutes"`
}

func (s *Server) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := settingsdomain.UpdateSettingsRequest{
		DefaultHourlyRateCents: req.DefaultHourlyRateCents,
		WorkUnitMinutes:        req.WorkUnitMinutes,
	}
	if req.CompanyName != nil {
		name := strings.TrimSpace(*req.CompanyName)
		update.CompanyName = &name
	}

	resp, err := s.settingsSvc.Update(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
