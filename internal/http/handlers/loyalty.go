package handlers

import (
	"net/http"

	intconfig "busline/internal/config"
	"busline/internal/http/middleware"
	"busline/internal/services"
	"busline/internal/utils"

	"github.com/gin-gonic/gin"
)

func loyaltyService(c *gin.Context) services.LoyaltyService {
	return services.LoyaltyService{
		Pricing:   currentEnv().Pricing,
		DB:        intconfig.DB,
		RequestID: middleware.GetRequestID(c),
	}
}

// GET /api/loyalty/:passengerId
func GetLoyaltyAccount(c *gin.Context) {
	passengerID, ok := paramID(c, "passengerId")
	if !ok {
		return
	}
	acct, txns, err := loyaltyService(c).Account(passengerID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct, "transactions": txns})
}

type awardRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// POST /api/loyalty/:passengerId/award
func AwardPoints(c *gin.Context) {
	passengerID, ok := paramID(c, "passengerId")
	if !ok {
		return
	}
	var req awardRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Description == "" {
		req.Description = "penyesuaian manual"
	}
	points, acct, err := loyaltyService(c).AwardForAmount(passengerID, req.Amount, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points_awarded": points, "account": acct})
}

type redeemRequest struct {
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

// POST /api/loyalty/:passengerId/redeem
func RedeemPoints(c *gin.Context) {
	passengerID, ok := paramID(c, "passengerId")
	if !ok {
		return
	}
	var req redeemRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Description == "" {
		req.Description = "penukaran poin"
	}
	discount, acct, err := loyaltyService(c).Redeem(passengerID, req.Points, req.Description)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"discount":  discount,
		"formatted": utils.FormatRupiah(discount),
		"account":   acct,
	})
}
