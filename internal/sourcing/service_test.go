package sourcing

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/common/apperr"
	"github.com/Abukstech/folocom/internal/part"
	"github.com/Abukstech/folocom/internal/user"
)

// memStore 内存版 Store，按插入顺序倒序模拟 created_at DESC。
type memStore struct {
	seq  int
	ord  map[string]int
	reqs map[string]Request
}

func newMemStore() *memStore {
	return &memStore{ord: map[string]int{}, reqs: map[string]Request{}}
}

func (m *memStore) Insert(ctx context.Context, r *Request) error {
	m.seq++
	m.ord[r.ID] = m.seq
	m.reqs[r.ID] = *r
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*Request, error) {
	r, ok := m.reqs[id]
	if !ok {
		return nil, ErrNotExist
	}
	cp := r
	return &cp, nil
}

func (m *memStore) FindMany(ctx context.Context, f ListFilter) ([]Request, int64, error) {
	var out []Request
	for _, r := range m.reqs {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return m.ord[out[i].ID] > m.ord[out[j].ID] })
	total := int64(len(out))
	if f.Offset > len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memStore) Update(ctx context.Context, r *Request) error {
	if _, ok := m.reqs[r.ID]; !ok {
		return ErrNotExist
	}
	m.reqs[r.ID] = *r
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.reqs[id]; !ok {
		return ErrNotExist
	}
	delete(m.reqs, id)
	return nil
}

// fakeAssets 内存版图床。failUpload / failDelete 用于注入故障。
type fakeAssets struct {
	seq        int
	failUpload bool
	failDelete bool
	deleted    []string
	live       map[string]bool
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{live: map[string]bool{}}
}

func (f *fakeAssets) Upload(ctx context.Context, r io.Reader, folder string) (*asset.Image, error) {
	if f.failUpload {
		return nil, fmt.Errorf("image host unavailable")
	}
	f.seq++
	publicID := fmt.Sprintf("%s/img-%d", folder, f.seq)
	f.live[publicID] = true
	return &asset.Image{
		URL:      fmt.Sprintf("https://res.example.com/demo/image/upload/v170000000%d/%s.jpg", f.seq, publicID),
		PublicID: publicID,
	}, nil
}

func (f *fakeAssets) Delete(ctx context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	if f.failDelete {
		return fmt.Errorf("image host unavailable")
	}
	delete(f.live, publicID)
	return nil
}

func newTestService() (*Service, *memStore, *fakeAssets) {
	store := newMemStore()
	assets := newFakeAssets()
	return NewService(store, assets, nil), store, assets
}

func validInput() CreateInput {
	return CreateInput{
		CarMake:         "Toyota",
		CarModel:        "Camry",
		CarYear:         2015,
		Condition:       part.ConditionBrandNew,
		PartDescription: "I need a front bumper for my Camry",
	}
}

func TestCreateWithoutImage(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != StatusPending {
		t.Fatalf("expected status PENDING, got %s", r.Status)
	}
	if r.ImageURL != nil {
		t.Fatalf("expected nil imageUrl, got %v", *r.ImageURL)
	}
	if r.UserID != "u1" {
		t.Fatalf("expected requester u1, got %s", r.UserID)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	in := validInput()
	in.PartDescription = "too short"
	if _, err := svc.Create(ctx, "u1", in, nil); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error for short description, got %v", err)
	}

	in = validInput()
	in.CarYear = 1850
	if _, err := svc.Create(ctx, "u1", in, nil); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error for year, got %v", err)
	}

	in = validInput()
	in.Condition = part.Condition("USED")
	if _, err := svc.Create(ctx, "u1", in, nil); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected validation error for condition, got %v", err)
	}
}

func TestCreateUploadFailureAborts(t *testing.T) {
	svc, store, assets := newTestService()
	assets.failUpload = true
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", validInput(), strings.NewReader("blob"))
	if !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected upload failure to surface as invalid, got %v", err)
	}
	if len(store.reqs) != 0 {
		t.Fatalf("expected no record persisted after failed upload")
	}
}

func TestGetAuthorization(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, r.ID, "u2", user.RoleBuyer); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
	if _, err := svc.Get(ctx, r.ID, "u1", user.RoleBuyer); err != nil {
		t.Fatalf("expected owner can read: %v", err)
	}
	if _, err := svc.Get(ctx, r.ID, "ops", user.RoleAdmin); err != nil {
		t.Fatalf("expected admin can read: %v", err)
	}
	if _, err := svc.Get(ctx, "missing", "u1", user.RoleBuyer); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListStaffOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, _, err := svc.List(ctx, user.RoleBuyer, nil, 0, 10); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-staff list, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, fmt.Sprintf("u%d", i), validInput(), nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	reqs, total, err := svc.List(ctx, user.RoleAdmin, nil, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(reqs) != 3 {
		t.Fatalf("expected 3 requests, got total=%d len=%d", total, len(reqs))
	}

	pending := StatusPending
	if _, total, err = svc.List(ctx, user.RoleAdmin, &pending, 0, 10); err != nil || total != 3 {
		t.Fatalf("expected 3 pending, got total=%d err=%v", total, err)
	}
}

func TestListMineScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, uid := range []string{"u1", "u1", "u2"} {
		if _, err := svc.Create(ctx, uid, validInput(), nil); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	reqs, total, err := svc.ListMine(ctx, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 own requests, got %d", total)
	}
	for _, r := range reqs {
		if r.UserID != "u1" {
			t.Fatalf("expected only u1 requests, got %s", r.UserID)
		}
	}
}

func TestSelfUpdatePhaseAndOwnership(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	carMake := "Honda"
	// 非归属人（含管理员账号）不能走自助修改
	if _, err := svc.Update(ctx, r.ID, "admin-user", UpdateInput{CarMake: &carMake}, nil); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	// PENDING 阶段可改
	got, err := svc.Update(ctx, r.ID, "u1", UpdateInput{CarMake: &carMake}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.CarMake != "Honda" {
		t.Fatalf("expected carMake patched, got %s", got.CarMake)
	}
	if got.CarModel != "Camry" {
		t.Fatalf("expected untouched field preserved, got %s", got.CarModel)
	}

	// 报价之后冻结
	rec := store.reqs[r.ID]
	rec.Status = StatusQuoted
	store.reqs[r.ID] = rec
	if _, err := svc.Update(ctx, r.ID, "u1", UpdateInput{CarMake: &carMake}, nil); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected phase error for quoted request, got %v", err)
	}

	// 取消后又可改
	rec.Status = StatusCancelled
	store.reqs[r.ID] = rec
	if _, err := svc.Update(ctx, r.ID, "u1", UpdateInput{CarMake: &carMake}, nil); err != nil {
		t.Fatalf("expected cancelled request editable: %v", err)
	}
}

func TestUpdateReplacesImageUploadFirst(t *testing.T) {
	svc, store, assets := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), strings.NewReader("old"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldURL := *r.ImageURL
	oldID := asset.ExtractPublicID(oldURL)

	got, err := svc.Update(ctx, r.ID, "u1", UpdateInput{}, strings.NewReader("new"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *got.ImageURL == oldURL {
		t.Fatalf("expected image replaced")
	}
	found := false
	for _, id := range assets.deleted {
		if id == oldID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected old asset %s deleted", oldID)
	}

	// 新图上传失败：记录与旧图都保持原样
	assets.failUpload = true
	before := store.reqs[r.ID]
	if _, err := svc.Update(ctx, r.ID, "u1", UpdateInput{}, strings.NewReader("newer")); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected upload failure surfaced, got %v", err)
	}
	after := store.reqs[r.ID]
	if *after.ImageURL != *before.ImageURL {
		t.Fatalf("expected record untouched after failed upload")
	}
}

func TestAdminUpdateBypassesSelfTable(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	quoted := StatusQuoted
	price := 45000.0
	notes := "OEM bumper available in Lagos"
	eta := "2026-09-15"
	got, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{
		Status:            &quoted,
		QuotedPrice:       &price,
		AdminNotes:        &notes,
		EstimatedDelivery: &eta,
	})
	if err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}
	if got.Status != StatusQuoted || got.QuotedPrice == nil || *got.QuotedPrice != 45000 {
		t.Fatalf("expected quoted with price, got %+v", got)
	}
	if got.EstimatedDelivery == nil || got.EstimatedDelivery.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("expected delivery date parsed, got %v", got.EstimatedDelivery)
	}

	// 运营可直接设任意状态，包括从 PENDING 跳 COMPLETED
	completed := StatusCompleted
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &completed}); err != nil {
		t.Fatalf("AdminUpdate to completed: %v", err)
	}

	bogus := Status("SHIPPED")
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &bogus}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected invalid status rejected, got %v", err)
	}

	neg := -1.0
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{QuotedPrice: &neg}); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected negative price rejected, got %v", err)
	}
}

func TestAcceptQuote(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// 未报价不可接受
	if _, err := svc.AcceptQuote(ctx, r.ID, "u1"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected not-quoted error, got %v", err)
	}

	quoted := StatusQuoted
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &quoted}); err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}

	if _, err := svc.AcceptQuote(ctx, r.ID, "u2"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	got, err := svc.AcceptQuote(ctx, r.ID, "u1")
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", got.Status)
	}

	// 第二次接受失败
	if _, err := svc.AcceptQuote(ctx, r.ID, "u1"); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected second accept to fail, got %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Cancel(ctx, r.ID, "u1", user.RoleBuyer)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", got.Status)
	}

	// 重复取消幂等
	if _, err := svc.Cancel(ctx, r.ID, "u1", user.RoleBuyer); err != nil {
		t.Fatalf("expected re-cancel to succeed: %v", err)
	}

	// 已接受的报价取消时被静默丢弃
	accepted := StatusAccepted
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &accepted}); err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}
	if _, err := svc.Cancel(ctx, r.ID, "ops", user.RoleAdmin); err != nil {
		t.Fatalf("expected admin cancel of accepted request: %v", err)
	}

	// COMPLETED 不可取消
	completed := StatusCompleted
	if _, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &completed}); err != nil {
		t.Fatalf("AdminUpdate: %v", err)
	}
	if _, err := svc.Cancel(ctx, r.ID, "u1", user.RoleBuyer); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected completed-cancel rejected, got %v", err)
	}
}

func TestRemoveSurvivesAssetFailure(t *testing.T) {
	svc, store, assets := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput(), strings.NewReader("blob"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Remove(ctx, r.ID, "u2", user.RoleBuyer); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	assets.failDelete = true
	got, err := svc.Remove(ctx, r.ID, "u1", user.RoleBuyer)
	if err != nil {
		t.Fatalf("expected remove to succeed despite asset failure: %v", err)
	}
	if got.ID != r.ID {
		t.Fatalf("expected prior record returned")
	}
	if _, ok := store.reqs[r.ID]; ok {
		t.Fatalf("expected record deleted from store")
	}
	if len(assets.deleted) == 0 {
		t.Fatalf("expected asset deletion attempted")
	}
}

// 完整走一遍典型流程：创建 -> 越权读被拒 -> 报价 -> 接受 -> 冻结自助修改。
func TestLifecycleScenario(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r, err := svc.Create(ctx, "U1", validInput(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != StatusPending || r.ImageURL != nil {
		t.Fatalf("unexpected initial record: %+v", r)
	}

	if _, err := svc.Get(ctx, r.ID, "U2", user.RoleBuyer); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for U2, got %v", err)
	}
	if _, err := svc.Get(ctx, r.ID, "U1", user.RoleBuyer); err != nil {
		t.Fatalf("expected U1 can read: %v", err)
	}

	quoted := StatusQuoted
	price := 45000.0
	got, err := svc.AdminUpdate(ctx, r.ID, AdminUpdateInput{Status: &quoted, QuotedPrice: &price})
	if err != nil || got.Status != StatusQuoted {
		t.Fatalf("expected QUOTED, got %+v err=%v", got, err)
	}

	got, err = svc.AcceptQuote(ctx, r.ID, "U1")
	if err != nil || got.Status != StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %+v err=%v", got, err)
	}

	carMake := "Honda"
	if _, err := svc.Update(ctx, r.ID, "U1", UpdateInput{CarMake: &carMake}, nil); !apperr.IsKind(err, apperr.KindInvalid) {
		t.Fatalf("expected self-edit frozen after acceptance, got %v", err)
	}
}
