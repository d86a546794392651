package service

import (
	"strings"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/validator"
)

type CompanyService interface {
	GetInfo() (*model.CompanyInfo, error)
	UpdateInfo(req *model.CompanyInfo, actor Actor) (*model.CompanyInfo, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	wsHub       *ws.Hub
}

func NewCompanyService(companyRepo repository.CompanyRepository, hub *ws.Hub) CompanyService {
	return &companyService{companyRepo: companyRepo, wsHub: hub}
}

func (s *companyService) GetInfo() (*model.CompanyInfo, error) {
	return s.companyRepo.Get()
}

func (s *companyService) UpdateInfo(req *model.CompanyInfo, actor Actor) (*model.CompanyInfo, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	req.UpdatedBy = actor.ID
	if err := s.companyRepo.Save(req); err != nil {
		return nil, err
	}

	info, err := s.companyRepo.Get()
	if err != nil {
		return nil, err
	}
	s.wsHub.Publish(ws.Event{
		Type:   "company",
		Action: "company_updated",
		Data:   info,
		User:   actor.eventUser(),
	})
	return info, nil
}
