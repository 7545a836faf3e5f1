package validation

import (
	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with struct-level rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterStructValidation(manifestStructValidation, ManifestRequest{})
	v.RegisterStructValidation(convertPaymentStructValidation, ConvertPaymentRequest{})
	v.RegisterStructValidation(ndrActionStructValidation, NDRActionRequest{})

	return v
}

// manifestStructValidation enforces the COD amount rule the field tags
// cannot express: COD shipments need a positive collect amount, prepaid must
// not carry one.
func manifestStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ManifestRequest)

	if req.PaymentMode == "COD" && req.CODAmount <= 0 {
		sl.ReportError(req.CODAmount, "cod_amount", "CODAmount", "cod_amount_positive", "")
	}
	if req.PaymentMode == "Prepaid" && req.CODAmount != 0 {
		sl.ReportError(req.CODAmount, "cod_amount", "CODAmount", "cod_amount_prepaid", "")
	}
}

func convertPaymentStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(ConvertPaymentRequest)

	if req.PaymentMode == "COD" && req.CODAmount <= 0 {
		sl.ReportError(req.CODAmount, "cod_amount", "CODAmount", "cod_amount_positive", "")
	}
}

func ndrActionStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(NDRActionRequest)

	if req.Action == "DEFER_DLV" && req.DeferredDate == "" {
		sl.ReportError(req.DeferredDate, "deferred_date", "DeferredDate", "deferred_date_required", "")
	}
}
