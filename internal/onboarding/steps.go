package onboarding

import (
	"context"
	"fmt"
	"strings"

	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/objectstore"
	"eventhub/internal/validation"
)

// RoleAndBrandInput is step 1.
type RoleAndBrandInput struct {
	Role             string `json:"role"`
	BrandName        string `json:"brand_name"`
	BrandDescription string `json:"brand_description"`
}

// AssetsInput is step 2. The gallery may be empty.
type AssetsInput struct {
	Logo    *objectstore.File
	Gallery []objectstore.File
}

// SubmitRoleAndBrand validates and stores the role and brand.
func (m *Machine) SubmitRoleAndBrand(ctx context.Context, in RoleAndBrandInput) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect(StepRoleAndBrand); err != nil {
		return m.stateLocked(), err
	}

	var problems []string
	role, ok := models.ParseRole(strings.TrimSpace(in.Role))
	if !ok {
		problems = append(problems, "role")
	}
	brandName := strings.TrimSpace(in.BrandName)
	if brandName == "" {
		problems = append(problems, "brand name")
	}
	if len(problems) > 0 {
		return m.stateLocked(), validation.New("role and brand are incomplete", problems...)
	}

	if err := m.w.store.UpdateRoleAndBrand(ctx, m.uid, role, brandName, strings.TrimSpace(in.BrandDescription)); err != nil {
		return m.stateLocked(), fmt.Errorf("save role and brand: %w", err)
	}

	m.role = role
	m.step = m.step.next()
	return m.stateLocked(), nil
}

// SubmitAssets uploads the logo and gallery, then stores their URLs in one update.
// A failed upload leaves the account untouched and removes what this attempt wrote.
func (m *Machine) SubmitAssets(ctx context.Context, in AssetsInput) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect(StepUploadAssets); err != nil {
		return m.stateLocked(), err
	}
	if in.Logo == nil || len(in.Logo.Data) == 0 {
		return m.stateLocked(), validation.New("assets are incomplete", "logo")
	}
	for i, f := range in.Gallery {
		if len(f.Data) == 0 {
			return m.stateLocked(), validation.New("assets are incomplete", fmt.Sprintf("photo %d is empty", i+1))
		}
	}

	var written []objectstore.Object
	rollback := func() {
		for _, obj := range written {
			if err := m.w.objects.Delete(context.WithoutCancel(ctx), obj.Bucket, obj.Key); err != nil {
				logging.WithContext(ctx).Warn().Err(err).Str("key", obj.Key).Msg("Remove partial upload failed")
			}
		}
	}

	// Each attempt writes fresh keys so rollback never touches a logo an earlier run persisted.
	logoKey := fmt.Sprintf("%s/logo-%s%s", m.uid, m.w.newID(), in.Logo.Ext())
	logoURL, err := m.w.objects.Put(ctx, objectstore.BucketBrands, logoKey, *in.Logo)
	if err != nil {
		return m.stateLocked(), fmt.Errorf("upload logo: %w", err)
	}
	written = append(written, objectstore.Object{Bucket: objectstore.BucketBrands, Key: logoKey})

	photos := make([]string, 0, len(in.Gallery))
	for _, f := range in.Gallery {
		key := fmt.Sprintf("%s/gallery/%s%s", m.uid, m.w.newID(), f.Ext())
		url, err := m.w.objects.Put(ctx, objectstore.BucketBrands, key, f)
		if err != nil {
			rollback()
			return m.stateLocked(), fmt.Errorf("upload gallery photo: %w", err)
		}
		written = append(written, objectstore.Object{Bucket: objectstore.BucketBrands, Key: key})
		photos = append(photos, url)
	}

	if err := m.w.store.UpdateAssets(ctx, m.uid, logoURL, photos); err != nil {
		rollback()
		return m.stateLocked(), fmt.Errorf("save assets: %w", err)
	}

	m.step = m.step.next()
	return m.stateLocked(), nil
}

// SubmitServices stores the priced service list.
func (m *Machine) SubmitServices(ctx context.Context, offerings []models.ServiceOffering) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect(StepServicesAndPricing); err != nil {
		return m.stateLocked(), err
	}

	cleaned, err := models.NormalizeServices(offerings)
	if err != nil {
		return m.stateLocked(), err
	}

	if err := m.w.store.UpdateServices(ctx, m.uid, cleaned); err != nil {
		return m.stateLocked(), fmt.Errorf("save services: %w", err)
	}

	m.step = m.step.next()
	return m.stateLocked(), nil
}

// SubmitLocation stores the address block. Country defaults to DefaultCountry.
func (m *Machine) SubmitLocation(ctx context.Context, in models.Location) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect(StepLocation); err != nil {
		return m.stateLocked(), err
	}

	loc := models.Location{
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		State:   strings.TrimSpace(in.State),
		Zip:     strings.TrimSpace(in.Zip),
		Country: strings.TrimSpace(in.Country),
	}
	if loc.Country == "" {
		loc.Country = models.DefaultCountry
	}

	var problems []string
	for _, f := range []struct{ name, value string }{
		{"address", loc.Address},
		{"city", loc.City},
		{"state", loc.State},
		{"zip", loc.Zip},
	} {
		if f.value == "" {
			problems = append(problems, f.name)
		}
	}
	if len(problems) > 0 {
		return m.stateLocked(), validation.New("location is incomplete", problems...)
	}

	if err := m.w.store.UpdateLocation(ctx, m.uid, loc); err != nil {
		return m.stateLocked(), fmt.Errorf("save location: %w", err)
	}

	m.step = m.step.next()
	return m.stateLocked(), nil
}

// SubmitVerification uploads the single verification document and completes the run.
// If only the completion write fails, the run stays at Complete and Finish retries it.
func (m *Machine) SubmitVerification(ctx context.Context, docs []objectstore.File) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect(StepVerification); err != nil {
		return m.stateLocked(), err
	}
	if len(docs) != 1 || len(docs[0].Data) == 0 {
		return m.stateLocked(), validation.New("verification requires exactly one document", "document")
	}

	key := fmt.Sprintf("%s/doc%s", m.uid, docs[0].Ext())
	if _, err := m.w.objects.Put(ctx, objectstore.BucketVerification, key, docs[0]); err != nil {
		return m.stateLocked(), fmt.Errorf("upload verification document: %w", err)
	}

	m.step = StepComplete
	if err := m.completeLocked(ctx); err != nil {
		return m.stateLocked(), err
	}
	return m.stateLocked(), nil
}
