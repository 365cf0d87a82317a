package recordfsm_test

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/recordfsm"
	"github.com/dmitrymomot/recordfsm/event"
)

func Example() {
	ctx := context.Background()

	post := recordfsm.MustNew("blog_post",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "new"}),
		recordfsm.WithColumn("text"),
		recordfsm.WithTransition("publish", "state", recordfsm.Sources("new"), "published"),
		recordfsm.WithTransition("remove", "state", recordfsm.Sources("published"), "removed"),
	)
	repo := recordfsm.NewRepository(post, recordfsm.NewMemoryStore())

	rec := post.New()
	_ = rec.Set("text", "hello world")
	if err := rec.Fire(ctx, "publish"); err != nil {
		fmt.Println("publish failed:", err)
		return
	}
	fmt.Println("state:", rec.State("state"))

	if err := repo.Save(ctx, rec); err != nil {
		fmt.Println("save failed:", err)
		return
	}
	fmt.Println("saved:", rec.Saved())

	// Output:
	// state: published
	// saved: true
}

func Example_concurrentTransition() {
	ctx := context.Background()

	post := recordfsm.MustNew("ticket",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "open"}),
		recordfsm.WithTransition("close", "state", recordfsm.Sources("open"), "closed"),
		recordfsm.WithTransition("escalate", "state", recordfsm.Sources("open"), "escalated"),
	)
	repo := recordfsm.NewRepository(post, recordfsm.NewMemoryStore())

	original := post.New()
	_ = repo.Save(ctx, original)

	copyA, _ := repo.Load(ctx, original.Key())
	copyB, _ := repo.Load(ctx, original.Key())

	_ = copyA.Fire(ctx, "close")
	_ = repo.Save(ctx, copyA)

	_ = copyB.Fire(ctx, "escalate")
	err := repo.Save(ctx, copyB)
	fmt.Println("second save conflicts:", recordfsm.IsConcurrentTransitionError(err))

	// The loser reconciles by reloading and re-applying.
	_ = repo.Reload(ctx, copyB)
	fmt.Println("after reload:", copyB.State("state"))

	// Output:
	// second save conflicts: true
	// after reload: closed
}

func ExampleExpr() {
	ctx := context.Background()

	article := recordfsm.MustNew("article",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "draft"}),
		recordfsm.WithColumn("word_count"),
		recordfsm.WithTransition("submit", "state", recordfsm.Sources("draft"), "submitted",
			recordfsm.WithCondition(recordfsm.MustExpr(`word_count != nil && word_count >= 100`)),
		),
	)

	rec := article.New()
	_ = rec.Set("word_count", 42)
	fmt.Println("short article can submit:", rec.CanFire(ctx, "submit"))

	_ = rec.Set("word_count", 250)
	fmt.Println("long article can submit:", rec.CanFire(ctx, "submit"))

	// Output:
	// short article can submit: false
	// long article can submit: true
}

func ExampleModel_Bus() {
	ctx := context.Background()

	doc := recordfsm.MustNew("document",
		recordfsm.WithField(recordfsm.Field{Name: "state", Default: "pending", Protected: true}),
		recordfsm.WithTransition("approve", "state", recordfsm.Sources("pending"), "approved"),
		recordfsm.WithTransition("publish", "state", recordfsm.Sources("approved"), "live"),
	)

	// A post-transition handler chains the next step before any save.
	event.Subscribe(doc.Bus(), func(ctx context.Context, e recordfsm.PostTransition) error {
		if e.Target == "approved" {
			return e.Record.Fire(ctx, "publish")
		}
		return nil
	})

	rec := doc.New()
	_ = rec.Fire(ctx, "approve")
	fmt.Println(rec.State("state"))

	// Output:
	// live
}
