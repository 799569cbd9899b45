package web

import (
	"net/http"
	"strings"

	"github.com/Atim-01/devblog/internal/feed"
	"github.com/Atim-01/devblog/internal/middleware"
	"github.com/Atim-01/devblog/internal/models"
	"github.com/gorilla/mux"
)

func (app *App) home(w http.ResponseWriter, r *http.Request) {
	posts, err := app.api.ListPosts(r.Context(), homeSize, 0)
	if err != nil {
		app.log.Errorf("Failed to get posts: %v", err)
		posts = []*models.Post{}
	}
	app.render(w, r, http.StatusOK, "home.page.html", &HTMLData{Title: "Home", Posts: posts})
}

// listPosts shows every post, or the matches for ?q= or ?tag=
func (app *App) listPosts(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))

	var (
		posts []*models.Post
		err   error
	)
	switch {
	case query != "":
		posts, err = app.api.SearchPosts(r.Context(), query)
	case tag != "":
		posts, err = app.api.PostsByTag(r.Context(), tag)
	default:
		posts, err = app.api.ListPosts(r.Context(), 0, 0)
	}
	if err != nil {
		app.ServerError(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "posts.page.html", &HTMLData{
		Title: "All Posts",
		Posts: posts,
		Query: query,
		Tag:   tag,
	})
}

func (app *App) viewPost(w http.ResponseWriter, r *http.Request) {
	post, err := app.api.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}
	user, _ := middleware.UserFromContext(r.Context())
	app.render(w, r, http.StatusOK, "view-post.page.html", &HTMLData{
		Title:   post.Title,
		Post:    post,
		IsOwner: user != nil && user.ID == post.AuthorID,
	})
}

func (app *App) myPosts(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	posts, err := app.api.PostsByAuthor(r.Context(), user.ID)
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "my-posts.page.html", &HTMLData{Title: "My Posts", Posts: posts})
}

func (app *App) createPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.render(w, r, http.StatusOK, "create-post.page.html", &HTMLData{Title: "Create Post"})
		return
	}

	in := models.CreatePostInput{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: strings.TrimSpace(r.FormValue("content")),
	}
	post, err := app.api.CreatePost(r.Context(), tokenFromCookie(r), in)
	if err != nil {
		msg, list, ok := formErrors(err, http.StatusBadRequest, http.StatusUnprocessableEntity)
		if !ok {
			app.apiFailure(w, r, err)
			return
		}
		app.render(w, r, http.StatusUnprocessableEntity, "create-post.page.html", &HTMLData{
			Title:      "Create Post",
			FormError:  msg,
			FormErrors: list,
			FormData:   map[string]string{"title": in.Title, "content": in.Content},
		})
		return
	}

	app.log.Infof("Post created: ID=%s, Title=%q", post.ID, post.Title)
	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

func (app *App) editPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	user, _ := middleware.UserFromContext(r.Context())

	post, err := app.api.GetPost(r.Context(), id)
	if err != nil {
		app.apiFailure(w, r, err)
		return
	}
	if post.AuthorID != user.ID {
		app.Forbidden(w, r)
		return
	}

	if r.Method != http.MethodPost {
		app.render(w, r, http.StatusOK, "edit-post.page.html", &HTMLData{
			Title:    "Edit Post",
			Post:     post,
			FormData: map[string]string{"title": post.Title, "content": post.Content},
		})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	updated, err := app.api.UpdatePost(r.Context(), tokenFromCookie(r), id, models.UpdatePostInput{
		Title:   &title,
		Content: &content,
	})
	if err != nil {
		msg, list, ok := formErrors(err, http.StatusBadRequest, http.StatusUnprocessableEntity)
		if !ok {
			app.apiFailure(w, r, err)
			return
		}
		app.render(w, r, http.StatusUnprocessableEntity, "edit-post.page.html", &HTMLData{
			Title:      "Edit Post",
			Post:       post,
			FormError:  msg,
			FormErrors: list,
			FormData:   map[string]string{"title": title, "content": content},
		})
		return
	}

	app.log.Infof("Post updated: ID=%s, Title=%q", updated.ID, updated.Title)
	http.Redirect(w, r, "/posts/"+updated.ID, http.StatusSeeOther)
}

func (app *App) deletePost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := app.api.DeletePost(r.Context(), tokenFromCookie(r), id); err != nil {
		app.apiFailure(w, r, err)
		return
	}
	app.log.Infof("Post deleted: ID=%s", id)
	http.Redirect(w, r, "/my-posts", http.StatusSeeOther)
}

// feedXML proxies the API's RSS document
func (app *App) feedXML(w http.ResponseWriter, r *http.Request) {
	doc, err := app.api.Feed(r.Context())
	if err != nil {
		app.ServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", feed.ContentType)
	w.Write(doc)
}
