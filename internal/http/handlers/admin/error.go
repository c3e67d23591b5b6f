package admin

import (
	handlershared "github.com/milkdesk/internal/http/handlers/shared"
	"github.com/milkdesk/internal/http/response"
	"github.com/milkdesk/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorRule = handlershared.MappedError

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondMappedError(c *gin.Context, err error, rules []errorRule, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, response.CodeInternal, fallbackKey)
}

var customerErrorRules = []errorRule{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrCustomerInactive, Code: response.CodeBadRequest, Key: "error.customer_inactive"},
	{Target: service.ErrCustomerNameRequired, Code: response.CodeBadRequest, Key: "error.customer_name_required"},
	{Target: service.ErrCustomerMobileExists, Code: response.CodeConflict, Key: "error.customer_mobile_exists"},
	{Target: service.ErrCustomerPinInvalid, Code: response.CodeBadRequest, Key: "error.customer_pin_invalid"},
	{Target: service.ErrCustomerAddressShort, Code: response.CodeBadRequest, Key: "error.customer_address_short"},
	{Target: service.ErrMobileInvalid, Code: response.CodeBadRequest, Key: "error.mobile_invalid"},
	{Target: service.ErrAreaNotFound, Code: response.CodeBadRequest, Key: "error.area_not_found"},
	{Target: service.ErrAreaInactive, Code: response.CodeBadRequest, Key: "error.area_inactive"},
}

var catalogErrorRules = []errorRule{
	{Target: service.ErrAreaNotFound, Code: response.CodeNotFound, Key: "error.area_not_found"},
	{Target: service.ErrAreaNameRequired, Code: response.CodeBadRequest, Key: "error.area_name_required"},
	{Target: service.ErrAreaNameExists, Code: response.CodeConflict, Key: "error.area_name_exists"},
	{Target: service.ErrTokenTypeNotFound, Code: response.CodeNotFound, Key: "error.token_type_not_found"},
	{Target: service.ErrTokenTypeNameExists, Code: response.CodeConflict, Key: "error.token_type_name_exists"},
	{Target: service.ErrTokenTypeNameInvalid, Code: response.CodeBadRequest, Key: "error.token_type_name_invalid"},
	{Target: service.ErrTokenTypePriceInvalid, Code: response.CodeBadRequest, Key: "error.token_type_price_invalid"},
}

// tokenErrorRules 覆盖发放、余额与订单扣减共用的错误
var tokenErrorRules = []errorRule{
	{Target: service.ErrCustomerNotFound, Code: response.CodeNotFound, Key: "error.customer_not_found"},
	{Target: service.ErrCustomerInactive, Code: response.CodeBadRequest, Key: "error.customer_inactive"},
	{Target: service.ErrTokenTypeNotFound, Code: response.CodeNotFound, Key: "error.token_type_not_found"},
	{Target: service.ErrTokenTypeInactive, Code: response.CodeBadRequest, Key: "error.token_type_inactive"},
	{Target: service.ErrTokenBalanceInsufficient, Code: response.CodeConflict, Key: "error.token_balance_insufficient"},
	{Target: service.ErrTokenQuantityInvalid, Code: response.CodeBadRequest, Key: "error.token_quantity_invalid"},
	{Target: service.ErrTokenAdjustZero, Code: response.CodeBadRequest, Key: "error.token_adjust_zero"},
	{Target: service.ErrTokenReferenceConflict, Code: response.CodeConflict, Key: "error.token_reference_conflict"},
	{Target: service.ErrTokenIssueNotFound, Code: response.CodeNotFound, Key: "error.token_issue_not_found"},
	{Target: service.ErrTokenIssueQuantityOutOfRange, Code: response.CodeBadRequest, Key: "error.token_issue_quantity_out_of_range"},
	{Target: service.ErrTokenIssueAlreadyPaid, Code: response.CodeConflict, Key: "error.token_issue_already_paid"},
	{Target: service.ErrPaymentModeInvalid, Code: response.CodeBadRequest, Key: "error.payment_mode_invalid"},
	{Target: service.ErrDateInvalid, Code: response.CodeBadRequest, Key: "error.date_invalid"},
}

var orderErrorRules = append([]errorRule{
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict, Key: "error.order_status_invalid"},
	{Target: service.ErrOrderBulkEmpty, Code: response.CodeBadRequest, Key: "error.order_bulk_empty"},
	{Target: service.ErrOrderQuantityOutOfRange, Code: response.CodeBadRequest, Key: "error.order_quantity_out_of_range"},
}, tokenErrorRules...)

var exportErrorRules = []errorRule{
	{Target: service.ErrExportTooLarge, Code: response.CodeBadRequest, Key: "error.export_too_large"},
}
