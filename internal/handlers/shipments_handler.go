package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/carrier"
	"github.com/openfulfil/go-courier-sync/internal/ratelimit"
	"github.com/openfulfil/go-courier-sync/internal/shipments"
	"github.com/openfulfil/go-courier-sync/internal/status"
	"github.com/openfulfil/go-courier-sync/internal/validation"
)

// HandlerConfig groups dependencies for the shipment routes.
type HandlerConfig struct {
	Service *shipments.Service
	Logger  *zap.Logger
}

// RegisterShipmentRoutes registers the shipment operation endpoints.
func RegisterShipmentRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	svc := cfg.Service
	logger := cfg.Logger

	r.POST("/shipments", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ManifestRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		sh, err := svc.Manifest(ctx, shipments.ManifestInput{
			OrderID: req.OrderID,
			Consignee: shipments.Address{
				Name:    req.Consignee.Name,
				Line:    req.Consignee.Line,
				City:    req.Consignee.City,
				State:   req.Consignee.State,
				Country: req.Consignee.Country,
				Pincode: req.Consignee.Pincode,
				Phone:   req.Consignee.Phone,
			},
			Package: shipments.PackageProfile{
				WeightGrams: req.Package.WeightGrams,
				LengthCm:    req.Package.LengthCm,
				WidthCm:     req.Package.WidthCm,
				HeightCm:    req.Package.HeightCm,
				ItemCount:   req.Package.ItemCount,
			},
			PaymentMode:   req.PaymentMode,
			CODAmount:     req.CODAmount,
			DeclaredValue: req.DeclaredValue,
			EwaybillNo:    req.EwaybillNo,
			ProductsDesc:  req.ProductsDesc,
		})
		if err != nil {
			writeError(c, logger, "manifest", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"order_id":  sh.OrderID,
			"order_ref": sh.OrderRef,
			"awb":       sh.AWB,
			"state":     sh.State,
		})
	})

	r.GET("/shipments/:orderID", func(c *gin.Context) {
		sh, cls, err := svc.Get(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			writeError(c, logger, "get", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"shipment":     sh,
			"capabilities": capabilities(cls),
		})
	})

	r.POST("/shipments/:orderID/cancel", func(c *gin.Context) {
		res, err := svc.Cancel(c.Request.Context(), c.Param("orderID"))
		if err != nil {
			writeError(c, logger, "cancel", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"awb":         res.AWB,
			"full_refund": res.FullRefund,
			"note":        res.Note,
		})
	})

	r.PATCH("/shipments/:orderID", func(c *gin.Context) {
		var req validation.UpdateRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		sh, err := svc.UpdateDetails(c.Request.Context(), c.Param("orderID"), updateInput(&req))
		if err != nil {
			writeError(c, logger, "update", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": sh.OrderID, "awb": sh.AWB})
	})

	r.POST("/shipments/:orderID/payment-mode", func(c *gin.Context) {
		var req validation.ConvertPaymentRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		sh, err := svc.ConvertPaymentMode(c.Request.Context(), c.Param("orderID"), req.PaymentMode, req.CODAmount)
		if err != nil {
			writeError(c, logger, "convert_payment", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order_id":     sh.OrderID,
			"payment_mode": sh.PaymentMode,
			"cod_amount":   sh.CODAmount,
		})
	})

	r.POST("/shipments/:orderID/ndr", func(c *gin.Context) {
		var req validation.NDRActionRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		in := shipments.NDRInput{Action: req.Action}
		if req.DeferredDate != "" {
			d, err := time.Parse("2006-01-02", req.DeferredDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{"deferred_date": "expected YYYY-MM-DD"}})
				return
			}
			in.DeferredDate = d
		}
		if req.Update != nil {
			in.Update = updateInput(req.Update)
		}

		if err := svc.NDRAction(c.Request.Context(), c.Param("orderID"), in); err != nil {
			writeError(c, logger, "ndr_action", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "accepted", "action": req.Action})
	})

	r.POST("/shipments/:orderID/return", func(c *gin.Context) {
		var req validation.ReturnRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		returnAWB, err := svc.CreateReturn(c.Request.Context(), c.Param("orderID"), shipments.ReturnInput{Reason: req.Reason})
		if err != nil {
			writeError(c, logger, "create_return", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"return_awb": returnAWB})
	})

	r.POST("/track", func(c *gin.Context) {
		var req validation.TrackRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		tracked, err := svc.Track(c.Request.Context(), req.AWBs)
		if err != nil {
			writeError(c, logger, "track", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shipments": tracked})
	})

	r.POST("/pickups", func(c *gin.Context) {
		var req validation.PickupRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{"date": "expected YYYY-MM-DD"}})
			return
		}

		pickupID, err := svc.RequestPickup(c.Request.Context(), shipments.PickupInput{
			Location:      req.Location,
			Date:          date,
			Time:          req.Time,
			ExpectedCount: req.ExpectedCount,
		})
		if err != nil {
			writeError(c, logger, "pickup", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pickup_id": pickupID})
	})

	r.GET("/serviceability/:pincode", func(c *gin.Context) {
		sv, err := svc.CheckServiceability(c.Request.Context(), c.Param("pincode"))
		if err != nil {
			writeError(c, logger, "serviceability", err)
			return
		}
		c.JSON(http.StatusOK, sv)
	})

	r.GET("/waybills", func(c *gin.Context) {
		count := 1
		if raw := c.Query("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{"count": "must be a positive integer"}})
				return
			}
			count = n
		}

		waybills, err := svc.FetchWaybills(c.Request.Context(), count)
		if err != nil {
			writeError(c, logger, "waybills", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"waybills": waybills})
	})
}

func updateInput(req *validation.UpdateRequest) shipments.UpdateInput {
	return shipments.UpdateInput{
		Name:        req.Name,
		AddressLine: req.AddressLine,
		Phone:       req.Phone,
		WeightGrams: req.WeightGrams,
		LengthCm:    req.LengthCm,
		WidthCm:     req.WidthCm,
		HeightCm:    req.HeightCm,
		EwaybillNo:  req.EwaybillNo,
	}
}

// writeError maps domain errors onto HTTP responses.
// capabilities renders the classifier verdict for API consumers. status_stale
// flags a verdict derived from unrecognized carrier data: the caller should
// refresh (re-track) before trusting the action flags.
func capabilities(cls *status.Classification) gin.H {
	return gin.H{
		"can_cancel":         cls.CanCancel,
		"can_update_details": cls.CanUpdateDetails,
		"can_reattempt":      cls.CanReattempt,
		"can_defer":          cls.CanDefer,
		"can_edit_ndr":       cls.CanEditNDR,
		"can_create_return":  cls.CanCreateReturn,
		"is_terminal":        cls.IsTerminal,
		"status_stale":       cls.Uncertain,
	}
}

func writeError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var ve *shipments.ValidationError
	var pe *shipments.PreconditionFailedError
	var he *carrier.HTTPError

	switch {
	case errors.Is(err, shipments.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "shipment_not_found"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": gin.H{ve.Field: ve.Reason}})
	case errors.As(err, &pe):
		c.JSON(http.StatusConflict, gin.H{"error": "precondition_failed", "action": pe.Action, "state": pe.State})
	case errors.Is(err, ratelimit.ErrThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	case errors.As(err, &he):
		// carrier rejected the request; surface its message but not our auth details
		status := http.StatusBadGateway
		if he.Status >= 400 && he.Status < 500 {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": "carrier_rejected", "carrier_message": he.CarrierMessage})
	case errors.Is(err, carrier.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "carrier_not_configured"})
	default:
		if logger != nil {
			logger.Error("operation failed", zap.String("op", op), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
