package services

import (
	"context"
	"errors"
	"testing"

	"github.com/clickbazaar/api/internal/domain"
	"github.com/clickbazaar/api/internal/repositories"
)

func newSupportFixture(t *testing.T) (SupportService, *fakeSupport) {
	t.Helper()
	repo := &fakeSupport{}
	svc, err := NewSupportService(SupportServiceDeps{
		Messages:    repo,
		Clock:       fixedClock,
		IDGenerator: sequentialIDs(),
	})
	if err != nil {
		t.Fatalf("NewSupportService: %v", err)
	}
	return svc, repo
}

func TestSendMessageStripsMarkup(t *testing.T) {
	svc, repo := newSupportFixture(t)

	message, err := svc.SendMessage(context.Background(), SendMessageCommand{
		UserID: "usr-1",
		Sender: domain.SupportSenderCustomer,
		Body:   `<b>Where</b> is my <script>alert(1)</script>order?`,
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if message.Body != "Where is my order?" {
		t.Errorf("body = %q", message.Body)
	}
	if len(repo.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(repo.messages))
	}
	if repo.messages[0].IsRead {
		t.Errorf("new message must start unread")
	}
}

func TestSendMessageRejectsMarkupOnlyBody(t *testing.T) {
	svc, _ := newSupportFixture(t)

	_, err := svc.SendMessage(context.Background(), SendMessageCommand{
		UserID: "usr-1",
		Sender: domain.SupportSenderCustomer,
		Body:   `<img src="x">`,
	})
	if !errors.Is(err, ErrSupportEmptyMessage) {
		t.Fatalf("err = %v, want ErrSupportEmptyMessage", err)
	}
}

func TestSendMessageRejectsUnknownSender(t *testing.T) {
	svc, _ := newSupportFixture(t)

	_, err := svc.SendMessage(context.Background(), SendMessageCommand{
		UserID: "usr-1",
		Sender: "bot",
		Body:   "hello",
	})
	if !errors.Is(err, ErrSupportInvalidInput) {
		t.Fatalf("err = %v, want ErrSupportInvalidInput", err)
	}
}

func TestThreadMarksOtherSideRead(t *testing.T) {
	svc, repo := newSupportFixture(t)
	repo.messages = []domain.SupportMessage{
		{ID: "msg-1", UserID: "usr-1", Sender: domain.SupportSenderCustomer, Body: "hi", CreatedAt: fixedNow},
		{ID: "msg-2", UserID: "usr-1", Sender: domain.SupportSenderAgent, Body: "hello", CreatedAt: fixedNow.Add(1)},
	}

	page, err := svc.Thread(context.Background(), "usr-1", domain.SupportSenderAgent, domain.Pagination{})
	if err != nil {
		t.Fatalf("Thread: %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("items = %d, want 2", len(page.Items))
	}
	if len(repo.markReads) != 1 || repo.markReads[0].reader != domain.SupportSenderAgent {
		t.Errorf("markReads = %+v", repo.markReads)
	}
	// The customer's message is now read; the agent's own stays as-is.
	if !repo.messages[0].IsRead {
		t.Errorf("customer message should be marked read for the agent")
	}
}

func TestInboxCountsUnread(t *testing.T) {
	svc, repo := newSupportFixture(t)
	repo.messages = []domain.SupportMessage{
		{ID: "msg-1", UserID: "usr-1", Sender: domain.SupportSenderCustomer, Body: "first", CreatedAt: fixedNow},
		{ID: "msg-2", UserID: "usr-1", Sender: domain.SupportSenderCustomer, Body: "second", CreatedAt: fixedNow.Add(1)},
		{ID: "msg-3", UserID: "usr-2", Sender: domain.SupportSenderAgent, Body: "welcome", CreatedAt: fixedNow.Add(2)},
	}

	page, err := svc.Inbox(context.Background(), repositories.SupportThreadFilter{}, domain.Pagination{})
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("threads = %d, want 2", len(page.Items))
	}

	unread, err := svc.Inbox(context.Background(), repositories.SupportThreadFilter{UnreadOnly: true}, domain.Pagination{})
	if err != nil {
		t.Fatalf("Inbox unread: %v", err)
	}
	if len(unread.Items) != 1 || unread.Items[0].UserID != "usr-1" {
		t.Errorf("unread threads = %+v", unread.Items)
	}
	if unread.Items[0].UnreadCount != 2 || unread.Items[0].LastMessage != "second" {
		t.Errorf("unexpected thread projection: %+v", unread.Items[0])
	}
}
