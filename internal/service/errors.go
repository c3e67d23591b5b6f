package service

import "errors"

// 通用错误
var (
	ErrNotFound              = errors.New("记录不存在")
	ErrInvalidCredentials    = errors.New("账号或密码错误")
	ErrInvalidPassword       = errors.New("原密码错误")
	ErrPasswordTooShort      = errors.New("新密码长度不足")
	ErrWeakPassword          = errors.New("新密码强度不足")
	ErrAdminDisabled         = errors.New("账号已停用")
	ErrAdminNotFound         = errors.New("员工不存在")
	ErrMobileInvalid         = errors.New("手机号格式错误")
	ErrDateInvalid           = errors.New("日期格式错误")
	ErrDashboardRangeInvalid = errors.New("统计区间无效")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("请输入验证码")
	ErrCaptchaInvalid       = errors.New("验证码错误")
	ErrCaptchaConfigInvalid = errors.New("验证码配置无效")
)

// 客户与基础资料错误
var (
	ErrCustomerNotFound      = errors.New("客户不存在")
	ErrCustomerInactive      = errors.New("客户已停用")
	ErrCustomerNameRequired  = errors.New("客户名称不能为空")
	ErrCustomerMobileExists  = errors.New("客户手机号已存在")
	ErrCustomerPinInvalid    = errors.New("邮编格式错误")
	ErrCustomerAddressShort  = errors.New("配送地址过短")
	ErrAreaNotFound          = errors.New("片区不存在")
	ErrAreaInactive          = errors.New("片区已停用")
	ErrAreaNameRequired      = errors.New("片区名称不能为空")
	ErrAreaNameExists        = errors.New("片区名称已存在")
	ErrTokenTypeNotFound     = errors.New("牛奶券类型不存在")
	ErrTokenTypeInactive     = errors.New("牛奶券类型已停用")
	ErrTokenTypeNameExists   = errors.New("牛奶券类型名称已存在")
	ErrTokenTypeNameInvalid  = errors.New("牛奶券类型名称不能为空")
	ErrTokenTypePriceInvalid = errors.New("牛奶券单价无效")
)

// 余额与流水错误
var (
	ErrTokenBalanceInsufficient     = errors.New("牛奶券余额不足")
	ErrTokenQuantityInvalid         = errors.New("牛奶券数量无效")
	ErrTokenReferenceRequired       = errors.New("余额流水缺少幂等键")
	ErrTokenBalanceUpdateFailed     = errors.New("余额更新失败")
	ErrTokenBalanceCreateFailed     = errors.New("余额创建失败")
	ErrTokenTransactionCreateFailed = errors.New("余额流水写入失败")
	ErrTokenAdjustZero              = errors.New("调整数量不能为0")
	ErrTokenReferenceConflict       = errors.New("幂等键已被其他流水占用")
)

// 牛奶券发放错误
var (
	ErrTokenIssueNotFound           = errors.New("发放记录不存在")
	ErrTokenIssueQuantityOutOfRange = errors.New("发放数量超出范围")
	ErrTokenIssueAlreadyPaid        = errors.New("发放记录已收款")
	ErrTokenIssueCreateFailed       = errors.New("发放记录创建失败")
	ErrTokenIssueDeleteFailed       = errors.New("发放记录删除失败")
	ErrPaymentModeInvalid           = errors.New("收款方式无效")
)

// 订单错误
var (
	ErrOrderNotFound           = errors.New("订单不存在")
	ErrOrderStatusInvalid      = errors.New("订单状态不允许该操作")
	ErrOrderBulkEmpty          = errors.New("未选择订单或目标状态")
	ErrOrderQuantityOutOfRange = errors.New("订单张数超出范围")
	ErrOrderCreateFailed       = errors.New("订单创建失败")
	ErrOrderUpdateFailed       = errors.New("订单更新失败")
)

// 登录 OTP 错误
var (
	ErrOtpMobileUnknown    = errors.New("手机号未绑定启用的员工")
	ErrOtpSessionNotFound  = errors.New("验证码会话不存在")
	ErrOtpSessionClosed    = errors.New("验证码会话已结束")
	ErrOtpResendTooEarly   = errors.New("验证码重发过于频繁")
	ErrOtpCodeFormat       = errors.New("验证码必须为6位数字")
	ErrOtpInvalid          = errors.New("验证码错误")
	ErrOtpExpired          = errors.New("验证码已过期")
	ErrOtpTooManyAttempts  = errors.New("验证码错误次数过多")
	ErrOtpSendFailed       = errors.New("验证码发送失败")
	ErrSMSGatewayRejected  = errors.New("短信网关拒绝发送")
	ErrSMSGatewayNotConfig = errors.New("短信网关未配置")
)

// 队列与导出错误
var (
	ErrQueueUnavailable = errors.New("任务队列不可用")
	ErrExportTooLarge   = errors.New("导出数据量过大")
)
