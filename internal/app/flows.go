package app

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
)

// Login exchanges credentials for a token and starts the session. Any
// rejection by the server is reported as an AuthError.
func (a *App) Login(ctx context.Context, username, password string) (models.LoginResult, error) {
	in := models.LoginInput{Username: strings.TrimSpace(username), Password: password}
	if err := a.validate.Check("login", in); err != nil {
		return models.LoginResult{}, err
	}

	res, err := a.Client.Execute(ctx, client.OpLogin, client.Input(in))
	if err != nil {
		if errors.Is(err, errs.ErrServer) {
			return models.LoginResult{}, errs.Auth("login", err)
		}
		return models.LoginResult{}, err
	}
	out, err := client.DecodeInto[models.LoginResult](res)
	if err != nil || out.AccessToken == "" || out.UserID == "" {
		return models.LoginResult{}, errs.Auth("login", errors.New("no access token in response"))
	}

	if err := a.Sessions.Login(ctx, out.AccessToken, out.UserID); err != nil {
		return models.LoginResult{}, err
	}
	a.Cache.Write(cache.Write{Type: cache.TypeUser, Value: map[string]any{
		cache.IDField: out.UserID,
		"username":    out.Username,
	}})
	a.logger.Printf("app: logged in as %s", out.Username)
	return out, nil
}

// Register creates an account. It does not log in.
func (a *App) Register(ctx context.Context, in models.RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := a.validate.Check("register", in); err != nil {
		return "", err
	}
	res, err := a.Client.Execute(ctx, client.OpRegister, client.Input(in))
	if err != nil {
		return "", err
	}
	out, err := client.DecodeInto[models.RegisterResult](res)
	if err != nil {
		return "", errs.Server("register", err.Error())
	}
	return out.Message, nil
}

// Logout ends the session and forgets all cached and speculative state.
func (a *App) Logout(ctx context.Context) error {
	if err := a.Sessions.Logout(ctx); err != nil {
		return err
	}
	a.Actions.Reset()
	a.Cache.Reset()
	return nil
}

// AddPost publishes a post. tags is a comma separated list. The feed is
// refetched afterwards; a failure there is returned along with the new post.
func (a *App) AddPost(ctx context.Context, imageURL, content, tags string) (models.Post, error) {
	in := models.AddPostInput{
		ImageURL: strings.TrimSpace(imageURL),
		Content:  strings.TrimSpace(content),
		Tags:     SplitTags(tags),
	}
	if err := a.validate.Check("addPost", in); err != nil {
		return models.Post{}, err
	}

	res, err := a.Client.Execute(ctx, client.OpAddPost, client.Input(in))
	if err != nil {
		return models.Post{}, err
	}
	post, err := client.DecodeInto[models.Post](res)
	if err != nil {
		return models.Post{}, errs.Server("addPost", err.Error())
	}
	if _, err := a.Client.Refetch(ctx, client.FeedQuery()); err != nil {
		return post, err
	}
	return post, nil
}

// SplitTags turns "a, b,,c" into [a b c].
func SplitTags(csv string) []string {
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Follow toggles following userID and refreshes that profile. It returns the
// server's result flag.
func (a *App) Follow(ctx context.Context, userID string) (bool, error) {
	in := models.FollowInput{FollowingID: userID}
	if err := a.validate.Check("followUser", in); err != nil {
		return false, err
	}
	res, err := a.Client.Execute(ctx, client.OpFollowUser, client.Input(in))
	if err != nil {
		return false, err
	}
	ok, _ := res.Data.(bool)
	if _, err := a.Client.Refetch(ctx, client.UserQuery(userID)); err != nil {
		return ok, err
	}
	return ok, nil
}

// Search finds users by keyword. An empty keyword matches nothing and makes
// no request.
func (a *App) Search(ctx context.Context, keyword string) ([]models.User, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	res, err := a.Client.Execute(ctx, client.OpSearchUser, client.Input(models.SearchUserInput{Keyword: keyword}))
	if err != nil {
		return nil, err
	}
	return client.DecodeInto[[]models.User](res)
}

// Feed fetches every post, newest first.
func (a *App) Feed(ctx context.Context) ([]models.Post, error) {
	res, err := a.Client.Refetch(ctx, client.FeedQuery())
	if err != nil {
		return nil, err
	}
	return client.DecodeInto[[]models.Post](res)
}

// Post fetches one post.
func (a *App) Post(ctx context.Context, postID string) (models.Post, error) {
	if err := a.validate.Check("getPostById", models.PostByIDInput{PostID: postID}); err != nil {
		return models.Post{}, err
	}
	res, err := a.Client.Refetch(ctx, client.PostQuery(postID))
	if err != nil {
		return models.Post{}, err
	}
	return client.DecodeInto[models.Post](res)
}

// User fetches a profile with its followers, followings and posts.
func (a *App) User(ctx context.Context, userID string) (models.User, error) {
	if err := a.validate.Check("getUserById", models.GetUserByIDInput{UserID: userID}); err != nil {
		return models.User{}, err
	}
	res, err := a.Client.Refetch(ctx, client.UserQuery(userID))
	if err != nil {
		return models.User{}, err
	}
	return client.DecodeInto[models.User](res)
}

// Users lists every user.
func (a *App) Users(ctx context.Context) ([]models.User, error) {
	res, err := a.Client.Refetch(ctx, client.QueryRef{Op: client.OpGetUsers})
	if err != nil {
		return nil, err
	}
	return client.DecodeInto[[]models.User](res)
}
