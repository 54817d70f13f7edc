package scheduler

import (
	"context"
	"sort"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/freshshift/shift-planner/backend/internal/metrics"
)

// notify 保存通知，并在知道收件地址时把它作为邮件投递
// 邮件投递失败只记录日志，不影响调用方
func (s *Service) notify(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	n.ID = s.newID()
	n.CreatedAt = s.now()
	n.Read = false

	if err := s.store.SaveNotification(ctx, n); err != nil {
		return nil, err
	}

	s.mailNotification(ctx, n)
	return n, nil
}

func (s *Service) mailNotification(ctx context.Context, n *domain.Notification) {
	if s.publisher == nil {
		return
	}

	var to, name string
	switch n.Target {
	case domain.TargetAdmin:
		to = s.adminEmail
	case domain.TargetEmployee:
		employee, err := s.lookupEmployee(ctx, n.TargetEmployeeID)
		if err != nil {
			s.logger.Error("无法读取通知的收件人", "employee", n.TargetEmployeeID, "error", err)
			return
		}
		if employee != nil {
			to, name = employee.Email, employee.Name
		}
	}
	if to == "" {
		return
	}

	var storeName string
	if n.StoreID != "" {
		storeName = n.StoreID.Name()
	}

	s.publish(ctx, &domain.MailMessage{
		Type: domain.MailNotification,
		To:   to,
		Data: domain.NotificationMailData{
			Name:         name,
			Type:         n.Type,
			StoreName:    storeName,
			EmployeeName: n.EmployeeName,
			Message:      n.Message,
			Reason:       n.Reason,
		},
	})
}

func (s *Service) publish(ctx context.Context, msg *domain.MailMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		metrics.IncMailPublishFailed()
		s.logger.Warn("无法投递邮件", "type", msg.Type, "to", msg.To, "error", err)
	}
}

// ListNotifications 按创建时间倒序返回
func (s *Service) ListNotifications(ctx context.Context, filter domain.NotificationFilter) ([]*domain.Notification, error) {
	all, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Notification, 0, len(all))
	for _, n := range all {
		if filter.Match(n) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (s *Service) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	return s.store.GetNotification(ctx, id)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	n.Read = true
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// MarkAllNotificationsRead 返回被标记为已读的通知数量
func (s *Service) MarkAllNotificationsRead(ctx context.Context, filter domain.NotificationFilter) (int, error) {
	filter.UnreadOnly = true
	unread, err := s.ListNotifications(ctx, filter)
	if err != nil {
		return 0, err
	}

	for _, n := range unread {
		n.Read = true
		if err := s.store.SaveNotification(ctx, n); err != nil {
			return 0, err
		}
	}
	return len(unread), nil
}
