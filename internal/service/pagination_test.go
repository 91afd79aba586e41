package service_test

import (
	"fmt"
	"testing"

	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/service"
)

func TestListCampaignsPagination(t *testing.T) {
	repo := NewMockCampaignRepo()
	for i := 0; i < 45; i++ {
		repo.Create(&model.Campaign{OrganizationID: 1, Name: fmt.Sprintf("campaign %d", i)})
	}
	svc := &service.CampaignService{CampaignRepo: repo}

	_, pagination, err := svc.ListCampaigns(1, 2, 20, "", "")
	if err != nil {
		t.Fatal(err)
	}

	if pagination["page"] != 2 {
		t.Errorf("expected page 2, got %d", pagination["page"])
	}
	if pagination["page_size"] != 20 {
		t.Errorf("expected page_size 20, got %d", pagination["page_size"])
	}
	if pagination["total_count"] != 45 {
		t.Errorf("expected total_count 45, got %d", pagination["total_count"])
	}
	if pagination["total_pages"] != 3 {
		t.Errorf("expected total_pages 3, got %d", pagination["total_pages"])
	}
}

func TestListCampaignsClampsBadInput(t *testing.T) {
	repo := NewMockCampaignRepo()
	repo.Create(&model.Campaign{OrganizationID: 1, Name: "only one"})
	svc := &service.CampaignService{CampaignRepo: repo}

	_, pagination, err := svc.ListCampaigns(1, -3, 9999, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if pagination["page"] != 1 {
		t.Errorf("negative page should clamp to 1, got %d", pagination["page"])
	}
	if pagination["page_size"] != 100 {
		t.Errorf("oversized page_size should clamp to 100, got %d", pagination["page_size"])
	}
}
