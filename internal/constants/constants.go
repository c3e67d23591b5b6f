package constants

// 订单状态常量
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// 订单来源常量
const (
	OrderSourceManual = "manual"
)

// 牛奶券发放收款状态
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// 收款方式
const (
	PaymentModeCash = "cash"
)

// 余额流水方向
const (
	TokenDirectionCredit = "credit"
	TokenDirectionDebit  = "debit"
)

// 余额变动原因
const (
	TokenReasonIssuePayment = "issue_payment"
	TokenReasonIssueDelete  = "issue_delete"
	TokenReasonOrderCancel  = "order_cancel"
	TokenReasonManualOrder  = "order_manual"
	TokenReasonAdminAdjust  = "admin_adjust"
	TokenReasonAuditRepair  = "audit_repair"
)

// 登录 OTP 状态
const (
	OtpStateIdle      = "idle"
	OtpStateAwaiting  = "awaiting_otp"
	OtpStateVerified  = "verified"
	OtpStateCancelled = "cancelled"
)

// 登录方式与结果
const (
	LoginMethodOtp      = "otp"
	LoginMethodPassword = "password"

	LoginStatusSuccess = "success"
	LoginStatusFailed  = "failed"
)

// 登录失败原因
const (
	LoginFailReasonUnknownMobile   = "unknown_mobile"
	LoginFailReasonInvalidOtp      = "invalid_otp"
	LoginFailReasonOtpExpired      = "otp_expired"
	LoginFailReasonTooManyAttempts = "too_many_attempts"
	LoginFailReasonBadCredentials  = "bad_credentials"
	LoginFailReasonDisabled        = "admin_disabled"
)

// 刷新广播主题
const (
	RefreshTopicCustomers    = "customers"
	RefreshTopicOrders       = "orders"
	RefreshTopicTokens       = "tokens"
	RefreshTopicTokenBalance = "token_balance"
	RefreshTopicAll          = "all"
)

// 客户状态筛选
const (
	CustomerStatusActive   = "active"
	CustomerStatusInactive = "inactive"
)

// 操作日志动作
const (
	ActionCustomerCreate     = "customer.create"
	ActionCustomerUpdate     = "customer.update"
	ActionCustomerStatus     = "customer.status"
	ActionTokenIssue         = "token_issue.create"
	ActionTokenIssuePayment  = "token_issue.cash_payment"
	ActionTokenIssueDelete   = "token_issue.delete"
	ActionTokenAdjust        = "token_balance.adjust"
	ActionOrderStatus        = "order.status"
	ActionOrderBulkStatus    = "order.bulk_status"
	ActionOrderManualCreate  = "order.manual_create"
	ActionAdminRolesAssigned = "admin.roles"
)

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOtpDeliver  = "otp:deliver"
	TaskLedgerAudit = "ledger:audit"
	TaskOtpCleanup  = "otp:cleanup"
)
