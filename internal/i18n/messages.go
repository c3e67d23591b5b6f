package i18n

var catalogs = map[string]map[string]string{
	LocaleEN: messagesEN,
	LocaleZH: messagesZH,
}

var messagesEN = map[string]string{
	"error.bad_request":           "Invalid request",
	"error.unauthorized":          "Please sign in again",
	"error.forbidden":             "You do not have access to this page",
	"error.not_found":             "Not found",
	"error.internal":              "Something went wrong, please retry",
	"error.too_many_requests":     "Too many attempts, please wait and retry",
	"error.admin_id_invalid":      "Invalid session",
	"error.admin_id_type_invalid": "Invalid session",

	"error.invalid_credentials": "Incorrect username or password",
	"error.admin_disabled":      "This account is disabled",
	"error.admin_not_found":     "Staff account not found",
	"error.password_invalid":    "Current password is incorrect",
	"error.password_too_short":  "New password must be at least %d characters",
	"error.password_weak":       "New password is too weak",
	"error.password_need_upper": "New password needs an uppercase letter",
	"error.password_need_lower": "New password needs a lowercase letter",
	"error.password_need_digit": "New password needs a digit",
	"error.password_need_mark":  "New password needs a symbol",
	"error.login_failed":        "Login failed",
	"error.mobile_invalid":      "Enter a valid 10-digit mobile number",
	"error.date_invalid":        "Invalid date",

	"error.captcha_required":        "Enter the captcha",
	"error.captcha_invalid":         "Captcha is incorrect",
	"error.captcha_unavailable":     "Captcha is not available",
	"error.captcha_generate_failed": "Could not generate captcha",

	"error.otp_mobile_unknown":         "This mobile number is not registered",
	"error.otp_session_not_found":      "Login session not found, request a new OTP",
	"error.otp_session_closed":         "Login session has ended, request a new OTP",
	"error.otp_resend_too_early":       "Please wait before requesting another OTP",
	"error.otp_code_format":            "OTP must be 6 digits",
	"error.otp_invalid":                "Invalid OTP",
	"error.otp_expired":                "OTP has expired",
	"error.otp_too_many_attempts":      "Too many wrong OTP attempts, request a new OTP",
	"error.otp_send_failed":            "Could not send OTP",
	"error.sms_gateway_not_configured": "SMS gateway is not configured",

	"error.customer_not_found":       "Customer not found",
	"error.customer_inactive":        "Customer is inactive",
	"error.customer_name_required":   "Customer name must be at least 2 characters",
	"error.customer_mobile_exists":   "A customer with this mobile number already exists",
	"error.customer_pin_invalid":     "PIN code must be 6 digits",
	"error.customer_address_short":   "Address must be at least 10 characters",
	"error.customer_fetch_failed":    "Could not load customers",
	"error.customer_save_failed":     "Could not save customer",
	"error.area_not_found":           "Area not found",
	"error.area_inactive":            "Area is inactive",
	"error.area_name_required":       "Area name is required",
	"error.area_name_exists":         "Area name already exists",
	"error.area_save_failed":         "Could not save area",
	"error.token_type_not_found":     "Token type not found",
	"error.token_type_inactive":      "Token type is inactive",
	"error.token_type_name_exists":   "Token type name already exists",
	"error.token_type_name_invalid":  "Token type name is required",
	"error.token_type_price_invalid": "Unit price is invalid",
	"error.token_type_save_failed":   "Could not save token type",
	"error.catalog_fetch_failed":     "Could not load reference data",

	"error.token_balance_insufficient": "Not enough tokens available",
	"error.token_quantity_invalid":     "Token quantity is invalid",
	"error.token_adjust_zero":          "Adjustment cannot be zero",
	"error.token_reference_conflict":   "This change was already recorded differently",
	"error.token_balance_fetch_failed": "Could not load token balances",
	"error.token_adjust_failed":        "Could not adjust balance",
	"error.token_audit_failed":         "Could not run balance audit",

	"error.token_issue_not_found":             "Token history entry not found",
	"error.token_issue_quantity_out_of_range": "Token quantity must be between 1 and 100",
	"error.token_issue_already_paid":          "Payment already recorded",
	"error.payment_mode_invalid":              "Only cash payments can be recorded",
	"error.token_issue_fetch_failed":          "Could not load token history",
	"error.token_issue_save_failed":           "Could not save token issue",
	"error.token_issue_delete_failed":         "Could not delete token history entry",

	"error.order_not_found":             "Order not found",
	"error.order_status_invalid":        "Order status does not allow this action",
	"error.order_bulk_empty":            "Select orders and a status first",
	"error.order_quantity_out_of_range": "Token quantity must be between 1 and 100",
	"error.order_fetch_failed":          "Could not load orders",
	"error.order_update_failed":         "Could not update order",
	"error.order_create_failed":         "Could not create order",

	"error.queue_unavailable":      "Background queue is unavailable",
	"error.export_too_large":       "Too many rows to export, narrow the filter",
	"error.export_failed":          "Could not generate report",
	"error.dashboard_fetch_failed": "Could not load dashboard",
	"error.log_fetch_failed":       "Could not load logs",
	"error.authz_role_unknown":     "Unknown role",
	"error.authz_failed":           "Could not update permissions",
	"error.events_unavailable":     "Live updates are unavailable",

	"error.jwt_secret_missing":      "Sign-in is not configured",
	"error.auth_header_missing":     "Please sign in",
	"error.auth_header_invalid":     "Invalid authorization header",
	"error.token_invalid":           "Session is invalid, please sign in again",
	"error.token_revoked":           "Session has ended, please sign in again",
	"error.rate_limited":            "Too many attempts, retry in %d seconds",
	"error.login_rate_limited":      "Too many sign-in attempts, retry in %d seconds",
	"error.otp_send_rate_limited":   "Too many code requests for this number, retry in %d seconds",
	"error.otp_verify_rate_limited": "Too many code checks, retry in %d seconds",
	"error.rate_limit_unavailable":  "Service is busy, please retry",
}

var messagesZH = map[string]string{
	"error.bad_request":       "请求参数错误",
	"error.unauthorized":      "请重新登录",
	"error.forbidden":         "无权访问",
	"error.not_found":         "资源不存在",
	"error.internal":          "服务异常，请稍后重试",
	"error.too_many_requests": "操作过于频繁，请稍后再试",

	"error.invalid_credentials": "账号或密码错误",
	"error.admin_disabled":      "账号已停用",
	"error.password_invalid":    "原密码错误",
	"error.password_too_short":  "新密码至少%d位",
	"error.password_weak":       "新密码强度不足",
	"error.password_need_upper": "新密码需包含大写字母",
	"error.password_need_lower": "新密码需包含小写字母",
	"error.password_need_digit": "新密码需包含数字",
	"error.password_need_mark":  "新密码需包含符号",
	"error.mobile_invalid":      "请输入10位有效手机号",

	"error.otp_mobile_unknown":    "手机号未注册",
	"error.otp_resend_too_early":  "请稍后再获取验证码",
	"error.otp_code_format":       "验证码必须为6位数字",
	"error.otp_invalid":           "验证码错误",
	"error.otp_expired":           "验证码已过期",
	"error.otp_too_many_attempts": "验证码错误次数过多",
	"error.otp_send_failed":       "验证码发送失败",

	"error.customer_not_found":         "客户不存在",
	"error.customer_mobile_exists":     "客户手机号已存在",
	"error.token_balance_insufficient": "牛奶券余额不足",
	"error.token_issue_not_found":      "发放记录不存在",
	"error.token_issue_already_paid":   "发放记录已收款",
	"error.order_not_found":            "订单不存在",
	"error.order_status_invalid":       "订单状态不允许该操作",
	"error.order_bulk_empty":           "请先选择订单与目标状态",
	"error.export_too_large":           "导出数据量过大，请缩小筛选范围",

	"error.token_invalid":           "登录状态无效，请重新登录",
	"error.token_revoked":           "登录已失效，请重新登录",
	"error.rate_limited":            "操作过于频繁，请 %d 秒后重试",
	"error.login_rate_limited":      "登录尝试过于频繁，请 %d 秒后重试",
	"error.otp_send_rate_limited":   "该号码获取验证码过于频繁，请 %d 秒后重试",
	"error.otp_verify_rate_limited": "验证码校验过于频繁，请 %d 秒后重试",
	"error.rate_limit_unavailable":  "服务繁忙，请稍后重试",
}
