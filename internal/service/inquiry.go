package service

import (
	"context"
	"fmt"
	"time"

	"nosweat-backend/internal/client"
	"nosweat-backend/internal/dto"
	"nosweat-backend/internal/mail"
	"nosweat-backend/internal/metrics"
	"nosweat-backend/internal/model"
	"nosweat-backend/internal/repository"
)

type InquiryService interface {
	SubmitInquiry(ctx context.Context, req *dto.InquiryRequest) error
}

type inquiryServiceImpl struct {
	inquiryRepo    repository.InquiryRepository
	emailSender    client.EmailSender
	adminRecipient string
}

func NewInquiryService(
	inquiryRepo repository.InquiryRepository,
	emailSender client.EmailSender,
	adminRecipient string,
) InquiryService {
	return &inquiryServiceImpl{
		inquiryRepo:    inquiryRepo,
		emailSender:    emailSender,
		adminRecipient: adminRecipient,
	}
}

// SubmitInquiry records the inquiry and fans out two emails: a notification
// to staff and a confirmation to the requester. Email failures are logged by
// the sender and never fail the submission.
func (s *inquiryServiceImpl) SubmitInquiry(ctx context.Context, req *dto.InquiryRequest) error {
	if req.Name == "" || req.Email == "" || req.Company == "" {
		return fmt.Errorf("name, email and company are required")
	}

	if err := s.inquiryRepo.Create(ctx, &model.WholesaleInquiry{
		Name:                 req.Name,
		Email:                req.Email,
		Company:              req.Company,
		ExpectedMonthlyUnits: req.ExpectedUnits,
		Message:              req.Message,
	}); err != nil {
		return fmt.Errorf("store wholesale inquiry: %w", err)
	}

	year := time.Now().Year()

	adminHTML, err := mail.RenderInquiryNotification(&mail.InquiryNotificationData{
		Name:          req.Name,
		Email:         req.Email,
		Company:       req.Company,
		ExpectedUnits: req.ExpectedUnits,
		Message:       req.Message,
		Year:          year,
	})
	if err != nil {
		return err
	}

	ok := s.emailSender.Send(ctx,
		"New Wholesale Inquiry - No Sweat™",
		fmt.Sprintf("New inquiry from %s (%s)", req.Name, req.Email),
		adminHTML,
		s.adminRecipient,
	)
	metrics.EmailsDispatched.WithLabelValues("inquiry_notification", outcomeLabel(ok)).Inc()

	customerHTML, err := mail.RenderInquiryConfirmation(&mail.InquiryConfirmationData{
		Name: req.Name,
		Year: year,
	})
	if err != nil {
		return err
	}

	ok = s.emailSender.Send(ctx,
		"Thank You for Your Inquiry - No Sweat™",
		"Thank you for contacting No Sweat™. Our team will reply soon.",
		customerHTML,
		req.Email,
	)
	metrics.EmailsDispatched.WithLabelValues("inquiry_confirmation", outcomeLabel(ok)).Inc()

	return nil
}
