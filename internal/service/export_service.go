package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milkdesk/internal/config"
	"github.com/milkdesk/internal/constants"
	"github.com/milkdesk/internal/logger"
	"github.com/milkdesk/internal/models"
	"github.com/milkdesk/internal/report"
	"github.com/milkdesk/internal/repository"
)

const exportPageSize = 500

// ExportService PDF 报表导出
type ExportService struct {
	cfg          config.ExportConfig
	customerRepo repository.CustomerRepository
	orderRepo    repository.OrderRepository
	issueRepo    repository.TokenIssueRepository
	now          func() time.Time
}

// ExportFile 导出结果
type ExportFile struct {
	FileName string
	Content  []byte
	Rows     int
}

// NewExportService 创建导出服务
func NewExportService(
	cfg config.ExportConfig,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	issueRepo repository.TokenIssueRepository,
) *ExportService {
	return &ExportService{
		cfg:          cfg,
		customerRepo: customerRepo,
		orderRepo:    orderRepo,
		issueRepo:    issueRepo,
		now:          time.Now,
	}
}

// ExportCustomers 导出客户列表
func (s *ExportService) ExportCustomers(ctx context.Context, filter repository.CustomerListFilter, filterLabel string) (*ExportFile, error) {
	customers, err := collectPages(s.maxRows(), func(page int) ([]models.Customer, int64, error) {
		filter.Page, filter.PageSize = page, exportPageSize
		return s.customerRepo.List(filter)
	})
	if err != nil {
		return nil, err
	}
	var active, inactive int64
	rows := make([]report.Row, 0, len(customers))
	for i, customer := range customers {
		status := constants.CustomerStatusInactive
		if customer.IsActive {
			status = constants.CustomerStatusActive
			active++
		} else {
			inactive++
		}
		area := ""
		if customer.Area != nil {
			area = customer.Area.Name
		}
		rows = append(rows, report.Row{
			Cells: []string{
				fmt.Sprintf("%d", i+1),
				customer.Name,
				customer.Mobile,
				area,
				customer.Address,
				customer.Pin,
				titleWord(status),
			},
			Status: status,
		})
	}
	return s.render(ctx, "customers", filterLabel, report.Document{
		Subtitle: "Customer Report",
		Summary: []report.SummaryItem{
			{Label: "Total", Count: int64(len(customers))},
			{Label: "Active", Count: active},
			{Label: "Inactive", Count: inactive},
		},
		Columns: []report.Column{
			{Header: "#", Width: 0.5, Align: "R"},
			{Header: "Name", Width: 2},
			{Header: "Mobile", Width: 1.3},
			{Header: "Area", Width: 1.3},
			{Header: "Address", Width: 3.5},
			{Header: "PIN", Width: 0.8},
			{Header: "Status", Width: 1, Align: "C"},
		},
		Rows:         rows,
		StatusColumn: 6,
	})
}

// ExportOrders 导出订单列表
func (s *ExportService) ExportOrders(ctx context.Context, filter repository.OrderListFilter, filterLabel string) (*ExportFile, error) {
	orders, err := collectPages(s.maxRows(), func(page int) ([]models.Order, int64, error) {
		filter.Page, filter.PageSize = page, exportPageSize
		return s.orderRepo.List(filter)
	})
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	rows := make([]report.Row, 0, len(orders))
	for _, order := range orders {
		counts[order.Status]++
		customer, area := "", ""
		if order.Customer != nil {
			customer = order.Customer.Name
			if order.Customer.Area != nil {
				area = order.Customer.Area.Name
			}
		}
		tokenType := ""
		if order.TokenType != nil {
			tokenType = order.TokenType.Name
		}
		rows = append(rows, report.Row{
			Cells: []string{
				fmt.Sprintf("%d", order.ID),
				customer,
				area,
				tokenType,
				fmt.Sprintf("%d", order.TokenQty),
				order.DeliveryDate.Format("02 Jan 2006"),
				titleWord(order.Status),
			},
			Status: order.Status,
		})
	}
	return s.render(ctx, "orders", filterLabel, report.Document{
		Subtitle: "Order Report",
		Summary: []report.SummaryItem{
			{Label: "Total", Count: int64(len(orders))},
			{Label: "Confirmed", Count: counts[constants.OrderStatusConfirmed]},
			{Label: "Delivered", Count: counts[constants.OrderStatusDelivered]},
			{Label: "Cancelled", Count: counts[constants.OrderStatusCancelled]},
		},
		Columns: []report.Column{
			{Header: "Order", Width: 0.7, Align: "R"},
			{Header: "Customer", Width: 2},
			{Header: "Area", Width: 1.3},
			{Header: "Token Type", Width: 1.3},
			{Header: "Qty", Width: 0.6, Align: "R"},
			{Header: "Delivery Date", Width: 1.2},
			{Header: "Status", Width: 1, Align: "C"},
		},
		Rows:         rows,
		StatusColumn: 6,
	})
}

// ExportTokenIssues 导出牛奶券发放历史
func (s *ExportService) ExportTokenIssues(ctx context.Context, filter repository.TokenIssueListFilter, filterLabel string) (*ExportFile, error) {
	issues, err := collectPages(s.maxRows(), func(page int) ([]models.TokenIssue, int64, error) {
		filter.Page, filter.PageSize = page, exportPageSize
		return s.issueRepo.List(filter)
	})
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{}
	rows := make([]report.Row, 0, len(issues))
	for _, issue := range issues {
		counts[issue.PaymentStatus]++
		customer, tokenType := "", ""
		if issue.Customer != nil {
			customer = issue.Customer.Name
		}
		if issue.TokenType != nil {
			tokenType = issue.TokenType.Name
		}
		paidOn := ""
		if issue.PaymentDate != nil {
			paidOn = issue.PaymentDate.Format("02 Jan 2006")
		}
		rows = append(rows, report.Row{
			Cells: []string{
				fmt.Sprintf("%d", issue.ID),
				customer,
				tokenType,
				fmt.Sprintf("%d", issue.Quantity),
				issue.IssueDate.Format("02 Jan 2006"),
				issue.TotalAmount.String(),
				strings.ToUpper(issue.PaymentMode),
				paidOn,
				titleWord(issue.PaymentStatus),
			},
			Status: issue.PaymentStatus,
		})
	}
	return s.render(ctx, "token_history", filterLabel, report.Document{
		Subtitle: "Token History Report",
		Summary: []report.SummaryItem{
			{Label: "Total", Count: int64(len(issues))},
			{Label: "Completed", Count: counts[constants.PaymentStatusCompleted]},
			{Label: "Pending", Count: counts[constants.PaymentStatusPending]},
		},
		Columns: []report.Column{
			{Header: "ID", Width: 0.6, Align: "R"},
			{Header: "Customer", Width: 2},
			{Header: "Token Type", Width: 1.3},
			{Header: "Qty", Width: 0.6, Align: "R"},
			{Header: "Issue Date", Width: 1.1},
			{Header: "Amount", Width: 1, Align: "R"},
			{Header: "Mode", Width: 0.8, Align: "C"},
			{Header: "Paid On", Width: 1.1},
			{Header: "Status", Width: 1, Align: "C"},
		},
		Rows:         rows,
		StatusColumn: 8,
	})
}

func (s *ExportService) render(ctx context.Context, kind, filterLabel string, doc report.Document) (*ExportFile, error) {
	now := s.now()
	doc.Title = strings.TrimSpace(s.cfg.Title)
	if doc.Title == "" {
		doc.Title = "Milk Order Management System"
	}
	doc.GeneratedAt = now
	var buf bytes.Buffer
	if err := report.Render(&buf, doc); err != nil {
		logger.FromContext(ctx).Errorw("report_render_failed", "kind", kind, "error", err)
		return nil, err
	}
	logger.FromContext(ctx).Infow("report_exported",
		"kind", kind,
		"filter", filterLabel,
		"rows", len(doc.Rows),
		"bytes", buf.Len(),
	)
	return &ExportFile{
		FileName: report.FileName(kind, filterLabel, now),
		Content:  buf.Bytes(),
		Rows:     len(doc.Rows),
	}, nil
}

func (s *ExportService) maxRows() int {
	if s.cfg.MaxRows <= 0 {
		return 5000
	}
	return s.cfg.MaxRows
}

func collectPages[T any](maxRows int, fetch func(page int) ([]T, int64, error)) ([]T, error) {
	items := make([]T, 0)
	for page := 1; ; page++ {
		batch, total, err := fetch(page)
		if err != nil {
			return nil, err
		}
		if total > int64(maxRows) {
			return nil, ErrExportTooLarge
		}
		items = append(items, batch...)
		if len(batch) < exportPageSize || int64(len(items)) >= total {
			return items, nil
		}
	}
}

func titleWord(raw string) string {
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}
