package taxonomy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/migcontrol/website/internal/model"
)

// --- Reconciler テスト用モック ---

// mockTaxonomyRepo はテスト用のTaxonomyRepositoryモック。
type mockTaxonomyRepo struct {
	categoriesByID   map[string]*model.Category
	categoriesBySlug map[string]*model.Category
	tagsByName       map[string]*model.Tag
	pageCategories   map[string][]string
	pageTags         map[string][]string
	updateCalls      int
}

func newMockTaxonomyRepo() *mockTaxonomyRepo {
	return &mockTaxonomyRepo{
		categoriesByID:   make(map[string]*model.Category),
		categoriesBySlug: make(map[string]*model.Category),
		tagsByName:       make(map[string]*model.Tag),
		pageCategories:   make(map[string][]string),
		pageTags:         make(map[string][]string),
	}
}

func (m *mockTaxonomyRepo) FindCategoryByID(_ context.Context, id string) (*model.Category, error) {
	return m.categoriesByID[id], nil
}

func (m *mockTaxonomyRepo) FindCategoryBySlug(_ context.Context, slug string) (*model.Category, error) {
	return m.categoriesBySlug[slug], nil
}

func (m *mockTaxonomyRepo) CreateCategory(_ context.Context, c *model.Category) error {
	m.categoriesByID[c.ID] = c
	m.categoriesBySlug[c.Slug] = c
	return nil
}

func (m *mockTaxonomyRepo) UpdateCategory(_ context.Context, c *model.Category) error {
	m.updateCalls++
	m.categoriesByID[c.ID] = c
	m.categoriesBySlug[c.Slug] = c
	return nil
}

func (m *mockTaxonomyRepo) FindTagByName(_ context.Context, name string) (*model.Tag, error) {
	return m.tagsByName[name], nil
}

func (m *mockTaxonomyRepo) CreateTag(_ context.Context, t *model.Tag) error {
	m.tagsByName[t.Name] = t
	return nil
}

func (m *mockTaxonomyRepo) AssociateCategory(_ context.Context, pageID, categoryID string) error {
	for _, id := range m.pageCategories[pageID] {
		if id == categoryID {
			return nil
		}
	}
	m.pageCategories[pageID] = append(m.pageCategories[pageID], categoryID)
	return nil
}

func (m *mockTaxonomyRepo) AssociateTag(_ context.Context, pageID, tagID string) error {
	for _, id := range m.pageTags[pageID] {
		if id == tagID {
			return nil
		}
	}
	m.pageTags[pageID] = append(m.pageTags[pageID], tagID)
	return nil
}

func (m *mockTaxonomyRepo) AssociateLocation(_ context.Context, pageID, locationPageID string) error {
	return nil
}

func newTestService(repo *mockTaxonomyRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestReconcileCategory_CreatesWithParent は未知カテゴリの作成と
// 親カテゴリの先行作成を検証する。
func TestReconcileCategory_CreatesWithParent(t *testing.T) {
	repo := newMockTaxonomyRepo()
	svc := newTestService(repo)

	term := model.Term{
		Taxonomy: "category",
		Name:     "Field Reports",
		Slug:     "field-reports",
		Parent:   &model.TermRef{Name: "Reports", Slug: "reports"},
	}

	c, err := svc.ReconcileCategory(context.Background(), term)
	if err != nil {
		t.Fatalf("ReconcileCategory error = %v", err)
	}

	parent := repo.categoriesBySlug["reports"]
	if parent == nil {
		t.Fatal("親カテゴリが作成されていない")
	}
	if c.ParentID != parent.ID {
		t.Errorf("ParentID = %q, want %q", c.ParentID, parent.ID)
	}
	if c.Slug != "field-reports" || c.Name != "Field Reports" {
		t.Errorf("category = %+v", c)
	}
}

// TestReconcileCategory_ConvergesNameAndParent は既存カテゴリが
// エクスポート内容に収束することを検証する。
func TestReconcileCategory_ConvergesNameAndParent(t *testing.T) {
	repo := newMockTaxonomyRepo()
	repo.CreateCategory(context.Background(), &model.Category{ID: "c1", Name: "Old Name", Slug: "field-reports"})
	repo.CreateCategory(context.Background(), &model.Category{ID: "c2", Name: "Reports", Slug: "reports"})
	svc := newTestService(repo)

	term := model.Term{
		Taxonomy: "category",
		Name:     "Field Reports",
		Slug:     "field-reports",
		Parent:   &model.TermRef{Name: "Reports", Slug: "reports"},
	}

	c, err := svc.ReconcileCategory(context.Background(), term)
	if err != nil {
		t.Fatalf("ReconcileCategory error = %v", err)
	}
	if c.ID != "c1" {
		t.Fatalf("既存カテゴリが再利用されるべき: %+v", c)
	}
	if c.Name != "Field Reports" {
		t.Errorf("Name = %q, 収束すべき", c.Name)
	}
	if c.ParentID != "c2" {
		t.Errorf("ParentID = %q, want c2", c.ParentID)
	}
}

// TestReconcileCategory_CycleGuard は循環を生む親の付け替えが
// スキップされることを検証する。
func TestReconcileCategory_CycleGuard(t *testing.T) {
	repo := newMockTaxonomyRepo()
	// child は parent の子。parent を child の子に付け替えようとする。
	repo.CreateCategory(context.Background(), &model.Category{ID: "p", Name: "Parent", Slug: "parent"})
	repo.CreateCategory(context.Background(), &model.Category{ID: "c", Name: "Child", Slug: "child", ParentID: "p"})
	svc := newTestService(repo)

	term := model.Term{
		Taxonomy: "category",
		Name:     "Parent",
		Slug:     "parent",
		Parent:   &model.TermRef{Name: "Child", Slug: "child"},
	}

	got, err := svc.ReconcileCategory(context.Background(), term)
	if err != nil {
		t.Fatalf("ReconcileCategory error = %v", err)
	}
	if got.ParentID != "" {
		t.Errorf("循環を生む付け替えはスキップされるべき: ParentID = %q", got.ParentID)
	}
}

// TestReconcileCategory_DerivedSlugCollision はslug未指定のカテゴリが
// 別名の既存カテゴリと衝突した場合の一意化を検証する。
func TestReconcileCategory_DerivedSlugCollision(t *testing.T) {
	repo := newMockTaxonomyRepo()
	repo.CreateCategory(context.Background(), &model.Category{ID: "c1", Name: "Grenzen (EU)", Slug: "grenzen"})
	svc := newTestService(repo)

	c, err := svc.ReconcileCategory(context.Background(), model.Term{
		Taxonomy: "category",
		Name:     "Grenzen",
	})
	if err != nil {
		t.Fatalf("ReconcileCategory error = %v", err)
	}
	if c.Slug != "grenzen-1" {
		t.Errorf("Slug = %q, want grenzen-1", c.Slug)
	}
	if c.ID == "c1" {
		t.Error("別名のカテゴリが同一視された")
	}
}

// TestReconcileCategory_Idempotent は同一Termの再照合が
// 新規作成も更新も発生させないことを検証する。
func TestReconcileCategory_Idempotent(t *testing.T) {
	repo := newMockTaxonomyRepo()
	svc := newTestService(repo)

	term := model.Term{Taxonomy: "category", Name: "Grenzen", Slug: "grenzen"}
	first, err := svc.ReconcileCategory(context.Background(), term)
	if err != nil {
		t.Fatalf("1回目 error = %v", err)
	}
	repo.updateCalls = 0

	second, err := svc.ReconcileCategory(context.Background(), term)
	if err != nil {
		t.Fatalf("2回目 error = %v", err)
	}
	if first.ID != second.ID {
		t.Error("再照合で別カテゴリが返った")
	}
	if repo.updateCalls != 0 {
		t.Errorf("変更がないのにupdateが呼ばれた: %d回", repo.updateCalls)
	}
}

// TestReconcileTag はタグの作成と再利用を検証する。
func TestReconcileTag(t *testing.T) {
	repo := newMockTaxonomyRepo()
	svc := newTestService(repo)

	first, err := svc.ReconcileTag(context.Background(), model.Term{Taxonomy: "post_tag", Name: "Grenzen"})
	if err != nil {
		t.Fatalf("1回目 error = %v", err)
	}
	second, err := svc.ReconcileTag(context.Background(), model.Term{Taxonomy: "post_tag", Name: "Grenzen"})
	if err != nil {
		t.Fatalf("2回目 error = %v", err)
	}
	if first.ID != second.ID {
		t.Error("同名タグは再利用されるべき")
	}
}

// TestAssociate は関連付けの冪等性を検証する。
func TestAssociate(t *testing.T) {
	repo := newMockTaxonomyRepo()
	svc := newTestService(repo)

	cats := []*model.Category{{ID: "c1"}, {ID: "c2"}}
	tags := []*model.Tag{{ID: "t1"}}

	for i := 0; i < 2; i++ {
		if err := svc.Associate(context.Background(), "page-1", cats, tags); err != nil {
			t.Fatalf("Associate error = %v", err)
		}
	}

	if len(repo.pageCategories["page-1"]) != 2 {
		t.Errorf("カテゴリ関連数 = %d, want 2", len(repo.pageCategories["page-1"]))
	}
	if len(repo.pageTags["page-1"]) != 1 {
		t.Errorf("タグ関連数 = %d, want 1", len(repo.pageTags["page-1"]))
	}
}
