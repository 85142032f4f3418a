package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/medcareai/medcare-client/internal/client/models"
	"github.com/medcareai/medcare-client/internal/client/router"
)

// Open navigates to path through the access guard and renders the view on
// an allow decision. A protected path reached anonymously redirects to the
// login view with the destination remembered for the post-login return.
func (a *App) Open(ctx context.Context, path string) error {
	if !router.Known(path) {
		fmt.Println("Unknown path:", path)
		return nil
	}

	d := a.router.Navigate(path, a.session.Current())
	if d.Kind == router.DecisionPending {
		// The guard renders nothing while the session is loading. Wait for
		// bootstrap to resolve and decide again, so a user with valid cached
		// credentials is never bounced to login by a slow profile refresh.
		if err := a.waitBooted(ctx); err != nil {
			return err
		}
		d = a.router.Navigate(path, a.session.Current())
	}

	switch d.Kind {
	case router.DecisionAllow:
		return a.render(ctx, path)
	case router.DecisionRedirect:
		fmt.Printf("Please login to access %s\n", d.From)
	}
	return nil
}

func (a *App) render(ctx context.Context, path string) error {
	switch path {
	case router.PathReport:
		return a.showMessage(ctx, a.client.Report)
	case router.PathRays:
		return a.showMessage(ctx, a.client.Rays)
	case router.PathAnalysis:
		return a.showMessage(ctx, a.client.Analysis)
	case router.PathNews:
		return a.showNews(ctx, "")
	case router.PathAbout:
		return a.showMessage(ctx, a.client.About)
	case router.PathContact:
		return a.showMessage(ctx, a.client.Contact)
	case router.PathAskDoc:
		return a.showMessage(ctx, a.client.AskDoctor)
	default:
		fmt.Println("Now viewing", path)
		return nil
	}
}

func (a *App) showMessage(ctx context.Context, fetch func(context.Context) (*models.Message, error)) error {
	msg, err := fetch(ctx)
	if err != nil {
		printRequestError(err)
		return err
	}
	fmt.Println(msg.Message)
	return nil
}

// News opens the news view and prints one page of articles for the given
// category ("health" when empty). The view is public; no login needed.
func (a *App) News(ctx context.Context, category string) error {
	a.router.Navigate(router.PathNews, a.session.Current())
	return a.showNews(ctx, category)
}

func (a *App) showNews(ctx context.Context, category string) error {
	if category == "" {
		category = "health"
	}

	page, err := a.client.News(ctx, models.NewsQuery{Category: category, Lang: "en", Page: 1})
	if err != nil {
		printRequestError(err)
		return err
	}

	fmt.Printf("%s news (%d articles)\n", category, page.TotalArticles)
	for _, art := range page.Articles {
		fmt.Printf("- %s (%s)\n", art.Title, art.Source.Name)
	}
	return nil
}

// Upload sends an MRI scan to the backend for analysis. The X-ray view is
// protected, so the upload goes through the same guard as opening it.
func (a *App) Upload(ctx context.Context, path string) error {
	d := a.router.Navigate(router.PathRays, a.session.Current())
	if d.Kind == router.DecisionPending {
		if err := a.waitBooted(ctx); err != nil {
			return err
		}
		d = a.router.Navigate(router.PathRays, a.session.Current())
	}
	if d.Kind == router.DecisionRedirect {
		fmt.Println("Please login to upload scans")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Println("Cannot open file:", err.Error())
		return err
	}
	defer func() { _ = f.Close() }()

	msg, err := a.client.UploadMRI(ctx, filepath.Base(path), f)
	if err != nil {
		printRequestError(err)
		return err
	}

	fmt.Println(msg.Message)
	return nil
}
