package access

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/propdesk/portal/internal/models"
)

// Decision tags why a check passed or failed. HTTP handlers only care about
// Allowed; the tag exists so logs and tests can tell a missing entitlement
// from a drip-locked module or a malformed query.
type Decision int

const (
	DeniedNotEntitled Decision = iota
	DeniedLocked
	DeniedInvalidQuery
	Granted
)

func (d Decision) Allowed() bool { return d == Granted }

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case DeniedLocked:
		return "denied_locked"
	case DeniedInvalidQuery:
		return "denied_invalid_query"
	default:
		return "denied_not_entitled"
	}
}

// Query selects the target of an access check. Exactly one field must be set;
// anything else is DeniedInvalidQuery.
type Query struct {
	ContentID   uint
	ProductSlug string
	ProductType string
}

// Checker answers "may this user reach this content / course / product type
// right now". Reads only; identity is passed explicitly so the checker stays
// independent of the HTTP layer.
type Checker struct {
	Store *Store
}

func (ch *Checker) db() *gorm.DB   { return ch.Store.DB }
func (ch *Checker) now() time.Time { return ch.Store.now() }

// Check runs the layered access decision. Denials come back as a Decision
// with a nil error; only storage faults produce a non-nil error, so callers
// can render infrastructure failure differently from "no access".
func (ch *Checker) Check(userID uint, role string, q Query) (Decision, error) {
	set := 0
	if q.ContentID != 0 {
		set++
	}
	if q.ProductSlug != "" {
		set++
	}
	if q.ProductType != "" {
		set++
	}
	if set != 1 {
		return DeniedInvalidQuery, nil
	}

	if role == models.RoleAdmin {
		return Granted, nil
	}

	switch {
	case q.ContentID != 0:
		return ch.checkContent(userID, q.ContentID)
	case q.ProductSlug != "":
		return ch.checkSlug(userID, q.ProductSlug)
	default:
		return ch.checkType(userID, q.ProductType)
	}
}

// checkContent resolves the content's product associations and grants on the
// first one whose entitlement is valid and whose module (if any) has unlocked.
// A valid entitlement behind a still-locked module reports DeniedLocked rather
// than DeniedNotEntitled.
func (ch *Checker) checkContent(userID, contentID uint) (Decision, error) {
	var assocs []models.ProductContent
	if err := ch.db().Where("content_id = ?", contentID).Find(&assocs).Error; err != nil {
		return DeniedNotEntitled, fmt.Errorf("content association lookup: %w", err)
	}
	if len(assocs) == 0 {
		return DeniedNotEntitled, nil
	}

	locked := false
	for _, pc := range assocs {
		ok, err := ch.Store.HasValidEntitlement(userID, pc.ProductID)
		if err != nil {
			return DeniedNotEntitled, err
		}
		if !ok {
			continue
		}
		if pc.ModuleID == nil {
			return Granted, nil
		}

		unlocked, err := ch.moduleUnlocked(userID, pc.ProductID, *pc.ModuleID)
		if err != nil {
			return DeniedNotEntitled, err
		}
		if unlocked {
			return Granted, nil
		}
		locked = true
	}

	if locked {
		return DeniedLocked, nil
	}
	return DeniedNotEntitled, nil
}

func (ch *Checker) checkSlug(userID uint, slug string) (Decision, error) {
	var product models.Product
	err := ch.db().Where("slug = ?", slug).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DeniedNotEntitled, nil
	}
	if err != nil {
		return DeniedNotEntitled, fmt.Errorf("product lookup: %w", err)
	}

	ok, err := ch.Store.HasValidEntitlement(userID, product.ID)
	if err != nil {
		return DeniedNotEntitled, err
	}
	if !ok {
		return DeniedNotEntitled, nil
	}
	return Granted, nil
}

func (ch *Checker) checkType(userID uint, productType string) (Decision, error) {
	products, err := ch.Store.ListValidEntitlements(userID)
	if err != nil {
		return DeniedNotEntitled, err
	}
	for _, p := range products {
		if p.Type == productType {
			return Granted, nil
		}
	}
	return DeniedNotEntitled, nil
}

// moduleUnlocked loads the module config and the user's anchor date and runs
// the release policy. A missing anchor for an otherwise valid entitlement
// fails closed: delayed modules stay locked.
func (ch *Checker) moduleUnlocked(userID, productID, moduleID uint) (bool, error) {
	var module models.Module
	err := ch.db().First(&module, moduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("module lookup: %w", err)
	}

	if module.ImmediateAccess {
		return true, nil
	}

	grantedAt, err := ch.Store.AccessDate(userID, productID)
	if err != nil {
		return false, err
	}
	if grantedAt == nil {
		return false, nil
	}
	return ModuleUnlocked(module, *grantedAt, ch.now()), nil
}

// ModuleAccess is one row of the course page's module list: the module, its
// unlock state for this user, and the future unlock date when still locked.
type ModuleAccess struct {
	Module    models.Module `json:"module"`
	Unlocked  bool          `json:"unlocked"`
	UnlocksAt *time.Time    `json:"unlocks_at,omitempty"`
}

// AccessibleModules evaluates the release policy over every module of a
// product, in display order. It assumes the caller already authorized the
// product itself; admins should be handled by the caller (role bypass happens
// in Check, not here).
func (ch *Checker) AccessibleModules(userID, productID uint) ([]ModuleAccess, error) {
	var modules []models.Module
	err := ch.db().Where("product_id = ?", productID).Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("module list: %w", err)
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].Position < modules[j].Position })

	grantedAt, err := ch.Store.AccessDate(userID, productID)
	if err != nil {
		return nil, err
	}

	now := ch.now()
	out := make([]ModuleAccess, 0, len(modules))
	for _, m := range modules {
		ma := ModuleAccess{Module: m}
		switch {
		case m.ImmediateAccess:
			ma.Unlocked = true
		case grantedAt == nil:
			// no anchor date recorded, delayed modules stay locked
		default:
			ma.Unlocked = ModuleUnlocked(m, *grantedAt, now)
			if !ma.Unlocked {
				ma.UnlocksAt = ReleaseDate(*grantedAt, m.ReleaseAfterDays)
			}
		}
		out = append(out, ma)
	}
	return out, nil
}
