package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/service"
)

// CreateCategory adds a category.
func CreateCategory(categories *service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CategoryInput
		if !decode(w, r, &in) {
			return
		}
		c, err := categories.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// ListCategories returns every category sorted by name.
func ListCategories(categories *service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := categories.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetCategory returns one category.
func GetCategory(categories *service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := categories.Get(r.Context(), chi.URLParam(r, "categoryID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// UpdateCategory replaces a category's name and description.
func UpdateCategory(categories *service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CategoryInput
		if !decode(w, r, &in) {
			return
		}
		c, err := categories.Update(r.Context(), chi.URLParam(r, "categoryID"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DeleteCategory removes a category.
func DeleteCategory(categories *service.CategoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := categories.Delete(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Category deleted successfully")
	}
}

// CreateTopic starts a discussion.
func CreateTopic(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.TopicInput
		if !decode(w, r, &in) {
			return
		}
		t, err := topics.Create(r.Context(), actor(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// ListTopics returns topics newest first.
func ListTopics(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := topics.List(r.Context(), actor(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// LatestTopics is the public feed of recent topics.
func LatestTopics(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := topics.Latest(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetTopic returns a topic and counts the view.
func GetTopic(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := topics.Get(r.Context(), chi.URLParam(r, "topicID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// UpdateTopic edits a topic.
func UpdateTopic(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.TopicInput
		if !decode(w, r, &in) {
			return
		}
		t, err := topics.Update(r.Context(), actor(r), chi.URLParam(r, "topicID"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// DeleteTopic soft-deletes a topic.
func DeleteTopic(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := topics.Delete(r.Context(), actor(r), chi.URLParam(r, "topicID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// RestoreTopic undoes a soft delete.
func RestoreTopic(topics *service.TopicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := topics.Restore(r.Context(), actor(r), chi.URLParam(r, "topicID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// CreateComment posts a comment. Subscribers of the topic are notified by
// the service once the comment is stored.
func CreateComment(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CommentInput
		if !decode(w, r, &in) {
			return
		}
		c, err := comments.Create(r.Context(), actor(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// ListTopicComments returns a topic's visible comments.
func ListTopicComments(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := comments.ListByTopic(r.Context(), chi.URLParam(r, "topicID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// ListComments returns comments across topics, filtered by ?search=.
func ListComments(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := comments.ListAll(r.Context(), actor(r), r.URL.Query().Get("search"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// UpdateComment edits a comment.
func UpdateComment(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.CommentEdit
		if !decode(w, r, &in) {
			return
		}
		c, err := comments.Update(r.Context(), actor(r), chi.URLParam(r, "commentID"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DeleteComment soft-deletes a comment.
func DeleteComment(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := comments.Delete(r.Context(), actor(r), chi.URLParam(r, "commentID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Comment deleted successfully")
	}
}

// RestoreComment undoes a soft delete.
func RestoreComment(comments *service.CommentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := comments.Restore(r.Context(), actor(r), chi.URLParam(r, "commentID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// CastVote creates, changes or withdraws the caller's vote.
func CastVote(votes *service.VoteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.VoteInput
		if !decode(w, r, &in) {
			return
		}
		res, err := votes.Cast(r.Context(), actor(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status := http.StatusOK
		if res.Action == domain.VoteActionCreate {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

// ListVotes returns the votes on the topic or comment named by the
// referenceId and referenceType query parameters.
func ListVotes(votes *service.VoteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := votes.ListByReference(r.Context(), q.Get("referenceId"), q.Get("referenceType"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DeleteVote removes a vote.
func DeleteVote(votes *service.VoteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := votes.Delete(r.Context(), actor(r), chi.URLParam(r, "voteID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Vote deleted successfully")
	}
}

// Dashboard returns the admin statistics.
func Dashboard(stats *service.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := stats.Dashboard(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
