package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/waterworks/backend/internal/domain/notification"
	"github.com/waterworks/backend/internal/domain/shared"
	"github.com/waterworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.NotificationRepository
// using GORM. The partial unique indexes on (invoice_id, message_type) and
// (related_type, related_id, message_type) make Save the dedup point.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByID finds a notification by its ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds notifications for a customer, newest first
func (r *GormNotificationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter notification.NotificationFilter) (*shared.Paginated[notification.Notification], error) {
	query := r.db.WithContext(ctx).Model(&models.NotificationModel{}).
		Where("customer_id = ?", customerID)
	query = applyNotificationFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var notificationModels []models.NotificationModel
	if err := query.
		Order(notificationOrderClause(filter)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&notificationModels).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(toDomainNotifications(notificationModels), total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindPending finds undelivered notifications, oldest first
func (r *GormNotificationRepository) FindPending(ctx context.Context, limit int) ([]notification.Notification, error) {
	var notificationModels []models.NotificationModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", notification.NotificationStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&notificationModels).Error; err != nil {
		return nil, err
	}
	return toDomainNotifications(notificationModels), nil
}

// FindLatestAttachmentURL returns the newest non-empty attachment URL written
// for an invoice, or empty when none exists
func (r *GormNotificationRepository) FindLatestAttachmentURL(ctx context.Context, invoiceID uuid.UUID) (string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("invoice_id = ? AND attachment_url <> ''", invoiceID).
		Order("created_at DESC").
		Limit(1).
		Pluck("attachment_url", &urls).Error; err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// Save creates a notification or updates its delivery status. A dedup index
// hit surfaces as ErrAlreadyExists.
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	model := models.NotificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("notification %s: %w", n.MessageType, shared.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func applyNotificationFilter(query *gorm.DB, filter notification.NotificationFilter) *gorm.DB {
	if filter.MessageType != nil {
		query = query.Where("message_type = ?", *filter.MessageType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func notificationOrderClause(filter notification.NotificationFilter) string {
	if filter.OrderBy == "" {
		return "created_at DESC"
	}
	dir := "ASC"
	if strings.ToLower(filter.OrderDir) == "desc" {
		dir = "DESC"
	}
	return filter.OrderBy + " " + dir
}

func toDomainNotifications(notificationModels []models.NotificationModel) []notification.Notification {
	notifications := make([]notification.Notification, len(notificationModels))
	for i, model := range notificationModels {
		notifications[i] = *model.ToDomain()
	}
	return notifications
}

// Ensure GormNotificationRepository implements NotificationRepository
var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)
