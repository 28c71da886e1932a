package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	vehicledomain "github.com/glanzwerk/beleg/internal/vehicle/domain"
)

type createVehicleRequest struct {
	CustomerID string `json:"customer_id"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	VIN        string `json:"vin"`
}

func (s *Server) CreateVehicle(c *gin.Context) {
	var req createVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.vehicleSvc.Create(c.Request.Context(), vehicledomain.CreateVehicleRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Make:       strings.TrimSpace(req.Make),
		Model:      strings.TrimSpace(req.Model),
		VIN:        strings.TrimSpace(req.VIN),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVehicleByID(c *gin.Context) {
	resp, err := s.vehicleSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
