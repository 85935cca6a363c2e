package repotest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/friendcircle/backend/internal/models"
	"github.com/anonto42/friendcircle/backend/internal/repositories"
)

// Posts is an in-memory repositories.PostRepository.
type Posts struct {
	Faults

	mu    sync.Mutex
	posts map[string]*models.Post
}

var _ repositories.PostRepository = (*Posts)(nil)

func NewPosts() *Posts {
	return &Posts{posts: make(map[string]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = slices.Clone(p.Likes)
	c.ImageURLs = slices.Clone(p.ImageURLs)
	return &c
}

func (r *Posts) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.fault("CreatePost"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	// strictly increasing so ordering by creation is deterministic
	post.CreatedAt = time.Now().Add(time.Duration(len(r.posts)) * time.Millisecond)
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []string{}
	}
	r.posts[post.ID.Hex()] = clonePost(post)
	return nil
}

func (r *Posts) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if err := r.fault("GetPostByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *Posts) list(keep func(p *models.Post) bool, skip, limit int64) []models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Post{}
	for _, p := range r.posts {
		if keep(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return []models.Post{}
	}
	out = out[skip:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out
}

func (r *Posts) GetPostsByUserID(ctx context.Context, userID string, skip, limit int64) ([]models.Post, error) {
	if err := r.fault("GetPostsByUserID"); err != nil {
		return nil, err
	}
	return r.list(func(p *models.Post) bool { return p.PostedBy == userID }, skip, limit), nil
}

func (r *Posts) GetFeed(ctx context.Context, authorIDs []string, skip, limit int64) ([]models.Post, error) {
	if err := r.fault("GetFeed"); err != nil {
		return nil, err
	}
	return r.list(func(p *models.Post) bool { return slices.Contains(authorIDs, p.PostedBy) }, skip, limit), nil
}

func (r *Posts) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	if err := r.fault("UpdatePost"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Text = post.Text
	p.ImageURLs = slices.Clone(post.ImageURLs)
	p.UpdatedAt = time.Now()
	return nil
}

func (r *Posts) DeletePost(ctx context.Context, id string) error {
	if err := r.fault("DeletePost"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *Posts) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, bool, error) {
	if err := r.fault("ToggleLike"); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	liked := !p.LikedBy(userID)
	if liked {
		p.Likes = append(p.Likes, userID)
	} else {
		p.Likes = slices.DeleteFunc(p.Likes, func(s string) bool { return s == userID })
	}
	p.LikesCount = len(p.Likes)
	return clonePost(p), liked, nil
}

func (r *Posts) IncrementCommentsCount(ctx context.Context, postID string) error {
	return r.incComments(postID, 1)
}

func (r *Posts) DecrementCommentsCount(ctx context.Context, postID string) error {
	return r.incComments(postID, -1)
}

func (r *Posts) incComments(postID string, delta int) error {
	if err := r.fault("CommentsCount"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.posts[postID]; ok && p.CommentsCount+delta >= 0 {
		p.CommentsCount += delta
	}
	return nil
}

// Comments is an in-memory store implementing both repositories.CommentRepository
// and repositories.CommentLikeRepository, since deleting a comment drops its likes.
type Comments struct {
	Faults

	mu       sync.Mutex
	nextID   uint
	comments map[uint]*models.Comment
	likes    map[uint][]string
}

var (
	_ repositories.CommentRepository     = (*Comments)(nil)
	_ repositories.CommentLikeRepository = (*Comments)(nil)
)

func NewComments() *Comments {
	return &Comments{comments: make(map[uint]*models.Comment), likes: make(map[uint][]string)}
}

func (r *Comments) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.fault("CreateComment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	c := *comment
	r.comments[c.ID] = &c
	return nil
}

func (r *Comments) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	if err := r.fault("GetCommentByID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Comments) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	if err := r.fault("GetCommentsByPostID"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Comments) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.fault("UpdateComment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[comment.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	c.Text = comment.Text
	c.UpdatedAt = time.Now()
	return nil
}

func (r *Comments) DeleteComment(ctx context.Context, id uint) error {
	if err := r.fault("DeleteComment"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.comments, id)
	delete(r.likes, id)
	return nil
}

func (r *Comments) DeleteCommentsByPostID(ctx context.Context, postID string) (int64, error) {
	if err := r.fault("DeleteCommentsByPostID"); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, c := range r.comments {
		if c.PostID == postID {
			delete(r.comments, id)
			delete(r.likes, id)
			n++
		}
	}
	return n, nil
}

func (r *Comments) ToggleLike(ctx context.Context, commentID uint, userID string) (*models.Comment, bool, error) {
	if err := r.fault("ToggleCommentLike"); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[commentID]
	if !ok {
		return nil, false, repositories.ErrNotFound
	}
	likers := r.likes[commentID]
	liked := !slices.Contains(likers, userID)
	if liked {
		likers = append(likers, userID)
	} else {
		likers = slices.DeleteFunc(likers, func(s string) bool { return s == userID })
	}
	r.likes[commentID] = likers
	c.LikesCount = len(likers)
	cp := *c
	return &cp, liked, nil
}

func (r *Comments) HasUserLikedComment(ctx context.Context, commentID uint, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.likes[commentID], userID), nil
}

func (r *Comments) GetLikers(ctx context.Context, commentID uint) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.likes[commentID]...), nil
}
