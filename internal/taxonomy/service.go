// Package taxonomy はカテゴリ・タグの照合と関連付けのドメインロジックを提供する。
//
// WXRの<category>要素を永続化済みのカテゴリ/タグに解決する。slugを同一性の
// キーとし、繰り返しのインポートで名前変更や親の付け替えに収束する。
package taxonomy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/migcontrol/website/internal/model"
	"github.com/migcontrol/website/internal/repository"
)

// maxAncestorDepth は循環検出で辿る祖先の上限。
const maxAncestorDepth = 50

// ReconcilerService はタクソノミー照合のインターフェース。
type ReconcilerService interface {
	// ReconcileCategory はWXRのカテゴリTermを永続カテゴリに解決する。
	// 未知のslugはカテゴリを新規作成し、既知のslugは名前と親参照を
	// 現在のエクスポート内容に合わせて更新する。
	// 親カテゴリが未作成の場合は先に作成する。
	ReconcileCategory(ctx context.Context, term model.Term) (*model.Category, error)

	// ReconcileTag はWXRのタグTermを永続タグに解決する。名前が同一性のキー。
	ReconcileTag(ctx context.Context, term model.Term) (*model.Tag, error)

	// Associate はページと解決済みカテゴリ/タグの関連を冪等に作成する。
	Associate(ctx context.Context, pageID string, categories []*model.Category, tags []*model.Tag) error

	// AssociateLocations はページと拠点ページの関連を冪等に作成する。
	AssociateLocations(ctx context.Context, pageID string, locationPageIDs []string) error
}

// Service はReconcilerServiceの実装。
type Service struct {
	repo   repository.TaxonomyRepository
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.TaxonomyRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ReconcileCategory はWXRのカテゴリTermを永続カテゴリに解決する。
func (s *Service) ReconcileCategory(ctx context.Context, term model.Term) (*model.Category, error) {
	parentID := ""
	if term.Parent != nil {
		parent, err := s.ensureCategory(ctx, term.Parent.Name, term.Parent.Slug, "")
		if err != nil {
			return nil, err
		}
		parentID = parent.ID
	}
	return s.ensureCategory(ctx, term.Name, term.Slug, parentID)
}

// ensureCategory はslugでカテゴリを検索し、なければ作成する。
// slugが未指定の場合は名前から導出し、別カテゴリとの衝突は
// 数値サフィックスで一意化する。
func (s *Service) ensureCategory(ctx context.Context, name, slug, parentID string) (*model.Category, error) {
	derived := false
	if slug == "" {
		slug = model.Slugify(name)
		derived = true
	}

	candidate := slug
	for i := 1; ; i++ {
		existing, err := s.repo.FindCategoryBySlug(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			break
		}

		// WXR由来のslugは同一性のキーとして扱う。名前導出のslugは
		// 名前も一致する場合のみ同一カテゴリとみなす。
		if !derived || existing.Name == name {
			return s.converge(ctx, existing, name, parentID)
		}

		if i > maxAncestorDepth {
			return nil, fmt.Errorf("カテゴリslugの一意化に失敗しました: %s", slug)
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}

	c := &model.Category{
		ID:       uuid.NewString(),
		Name:     name,
		Slug:     candidate,
		ParentID: parentID,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("カテゴリを作成しました", "name", name, "slug", candidate)
	return c, nil
}

// converge は既存カテゴリの名前と親参照を現在のエクスポート内容に合わせる。
// 親の付け替えが循環を生む場合は付け替えをスキップして警告する。
func (s *Service) converge(ctx context.Context, existing *model.Category, name, parentID string) (*model.Category, error) {
	changed := false
	if name != "" && existing.Name != name {
		existing.Name = name
		changed = true
	}
	if parentID != "" && existing.ParentID != parentID && existing.ID != parentID {
		cycle, err := s.wouldCycle(ctx, existing.ID, parentID)
		if err != nil {
			return nil, err
		}
		if cycle {
			s.logger.Warn("親カテゴリの付け替えが循環を生むためスキップします",
				"category", existing.Slug, "parentId", parentID)
		} else {
			existing.ParentID = parentID
			changed = true
		}
	}
	if changed {
		if err := s.repo.UpdateCategory(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("カテゴリを更新しました", "slug", existing.Slug, "name", existing.Name)
	}
	return existing, nil
}

// wouldCycle はcategoryIDをcandidateParentIDの子にした場合に
// 循環が生じるかを判定する。
func (s *Service) wouldCycle(ctx context.Context, categoryID, candidateParentID string) (bool, error) {
	current := candidateParentID
	for depth := 0; depth < maxAncestorDepth && current != ""; depth++ {
		if current == categoryID {
			return true, nil
		}
		parent, err := s.repo.FindCategoryByID(ctx, current)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return false, nil
		}
		current = parent.ParentID
	}
	return false, nil
}

// ReconcileTag はWXRのタグTermを永続タグに解決する。
func (s *Service) ReconcileTag(ctx context.Context, term model.Term) (*model.Tag, error) {
	existing, err := s.repo.FindTagByName(ctx, term.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	t := &model.Tag{
		ID:   uuid.NewString(),
		Name: term.Name,
	}
	if err := s.repo.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("タグを作成しました", "name", term.Name)
	return t, nil
}

// Associate はページと解決済みカテゴリ/タグの関連を冪等に作成する。
func (s *Service) Associate(ctx context.Context, pageID string, categories []*model.Category, tags []*model.Tag) error {
	for _, c := range categories {
		if err := s.repo.AssociateCategory(ctx, pageID, c.ID); err != nil {
			return err
		}
	}
	for _, t := range tags {
		if err := s.repo.AssociateTag(ctx, pageID, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// AssociateLocations はページと拠点ページの関連を冪等に作成する。
func (s *Service) AssociateLocations(ctx context.Context, pageID string, locationPageIDs []string) error {
	for _, id := range locationPageIDs {
		if err := s.repo.AssociateLocation(ctx, pageID, id); err != nil {
			return err
		}
	}
	return nil
}
