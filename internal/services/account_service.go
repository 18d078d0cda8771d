package services

import (
	"log"
	"strings"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/repositories"
)

// AccountService covers profile reads and writes plus the admin
// account management surface. Security flows live in AuthService.
type AccountService interface {
	Me(id string) (*models.Account, error)
	UpdateMe(id string, upd models.ProfileUpdate) (*models.Account, error)
	List(role string) ([]*models.Account, error)
	PageList(q repositories.PageQuery) ([]*models.Account, int, error)
	GetByID(id string) (*models.Account, error)
	SetActive(id string, active bool) (*models.Account, error)
	Delete(ids []string) (deleted, missing []string, err error)
}

type accountService struct {
	repo repositories.AccountRepository
}

func NewAccountService(repo repositories.AccountRepository) AccountService {
	return &accountService{repo: repo}
}

func (s *accountService) Me(id string) (*models.Account, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *accountService) UpdateMe(id string, upd models.ProfileUpdate) (*models.Account, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	unverify := false
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		upd.Email = &email
		if email != account.Email {
			taken, err := s.repo.EmailExists(email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, repositories.ErrDuplicateEmail
			}
			// a changed address must be re-verified
			unverify = true
		}
	}

	updated, err := s.repo.UpdateProfile(id, upd, unverify)
	if err != nil {
		return nil, err
	}
	if unverify {
		log.Printf("[account][update-me] email changed, verification reset account=%s", id)
	}
	return updated, nil
}

func (s *accountService) List(role string) ([]*models.Account, error) {
	return s.repo.List(strings.TrimSpace(role))
}

func (s *accountService) PageList(q repositories.PageQuery) ([]*models.Account, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 10
	}
	return s.repo.PageList(q)
}

func (s *accountService) GetByID(id string) (*models.Account, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *accountService) SetActive(id string, active bool) (*models.Account, error) {
	account, err := s.repo.SetActive(id, active)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	log.Printf("[account][status] account=%s active=%t", id, active)
	return account, nil
}

// Delete removes the given accounts and reports which ids actually
// existed, so a bulk request can be partially honored.
func (s *accountService) Delete(ids []string) (deleted, missing []string, err error) {
	existing, err := s.repo.ExistingIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	found := make(map[string]bool, len(existing))
	for _, id := range existing {
		found[id] = true
	}
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	if len(existing) > 0 {
		n, err := s.repo.Delete(existing)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[account][delete] removed %d account(s)", n)
	}
	return existing, missing, nil
}
