package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
)

// Firestore is a Store backed by Cloud Firestore. Document layout:
//
//	users/{uid}:                          { email, phoneNumber, uid }
//	users/{uid}/chats/{chatId}:           { heading, createdAt, updatedAt }
//	users/{uid}/chats/{chatId}/messages:  { text, sender, createdAt }
//
// Chat timestamps are server-assigned; message createdAt is the caller's
// submit-time value so the optimistic entry and a later fetch agree.
type Firestore struct {
	client *firestore.Client
}

type userDoc struct {
	Email       string `firestore:"email"`
	PhoneNumber string `firestore:"phoneNumber"`
	UID         string `firestore:"uid"`
}

type chatDoc struct {
	Heading   string    `firestore:"heading"`
	CreatedAt time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp"`
}

type messageDoc struct {
	Text      string `firestore:"text"`
	Sender    string `firestore:"sender"`
	CreatedAt int64  `firestore:"createdAt"`
}

// OpenFirestore connects to the Firestore database of the given project.
func OpenFirestore(ctx context.Context, project string) (*Firestore, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: project})
	if err != nil {
		return nil, fmt.Errorf("create firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client}, nil
}

func (f *Firestore) users() *firestore.CollectionRef {
	return f.client.Collection("users")
}

func (f *Firestore) chats(userID string) *firestore.CollectionRef {
	return f.users().Doc(userID).Collection("chats")
}

func (f *Firestore) messages(userID, chatID string) *firestore.CollectionRef {
	return f.chats(userID).Doc(chatID).Collection("messages")
}

func (f *Firestore) GetUser(ctx context.Context, id string) (*User, error) {
	snap, err := f.users().Doc(id).Get(ctx)
	if err != nil {
		// Get returns a snapshot with Exists() == false for missing docs.
		if snap != nil && !snap.Exists() {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(snap)
}

func (f *Firestore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return f.findUser(ctx, f.users().Where("email", "==", email))
}

func (f *Firestore) FindUserByPhone(ctx context.Context, phone string) (*User, error) {
	return f.findUser(ctx, f.users().Where("phoneNumber", "==", phone))
}

func (f *Firestore) FindUserByEmailAndPhone(ctx context.Context, email, phone string) (*User, error) {
	return f.findUser(ctx, f.users().Where("email", "==", email).Where("phoneNumber", "==", phone))
}

func (f *Firestore) findUser(ctx context.Context, q firestore.Query) (*User, error) {
	snap, err := q.Limit(1).Documents(ctx).Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return decodeUser(snap)
}

func decodeUser(snap *firestore.DocumentSnapshot) (*User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, &DecodeError{Kind: "user", ID: snap.Ref.ID, Err: err}
	}
	return &User{ID: snap.Ref.ID, Email: doc.Email, PhoneNumber: doc.PhoneNumber}, nil
}

func (f *Firestore) CreateUser(ctx context.Context, u *User) error {
	_, err := f.users().Doc(u.ID).Set(ctx, userDoc{
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		UID:         u.ID,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (f *Firestore) CreateChat(ctx context.Context, userID, heading string) (string, error) {
	ref := f.chats(userID).NewDoc()
	if _, err := ref.Set(ctx, chatDoc{Heading: heading}); err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	return ref.ID, nil
}

func (f *Firestore) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	iter := f.chats(userID).OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var chats []Chat
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list chats: %w", err)
		}
		var doc chatDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, &DecodeError{Kind: "chat", ID: snap.Ref.ID, Err: err}
		}
		chats = append(chats, Chat{
			ID:        snap.Ref.ID,
			Heading:   doc.Heading,
			CreatedAt: doc.CreatedAt.UnixMilli(),
			UpdatedAt: doc.UpdatedAt.UnixMilli(),
		})
	}
	return chats, nil
}

func (f *Firestore) TouchChat(ctx context.Context, userID, chatID string) error {
	_, err := f.chats(userID).Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	return nil
}

func (f *Firestore) DeleteChat(ctx context.Context, userID, chatID string) error {
	// Subcollection documents are not removed by deleting the parent, so
	// drain the messages first.
	msgs := f.messages(userID, chatID).Documents(ctx)
	defer msgs.Stop()
	for {
		snap, err := msgs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list messages for delete: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete message: %w", err)
		}
	}

	if _, err := f.chats(userID).Doc(chatID).Delete(ctx); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (f *Firestore) AddMessage(ctx context.Context, userID, chatID string, m *Message) (string, error) {
	ref := f.messages(userID, chatID).NewDoc()
	if m.ID != "" {
		ref = f.messages(userID, chatID).Doc(m.ID)
	}
	_, err := ref.Set(ctx, messageDoc{
		Text:      m.Text,
		Sender:    string(m.Sender),
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("add message: %w", err)
	}
	return ref.ID, nil
}

func (f *Firestore) ListMessages(ctx context.Context, userID, chatID string) ([]Message, error) {
	iter := f.messages(userID, chatID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var msgs []Message
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, &DecodeError{Kind: "message", ID: snap.Ref.ID, Err: err}
		}
		msgs = append(msgs, Message{
			ID:        snap.Ref.ID,
			Text:      doc.Text,
			Sender:    Sender(doc.Sender),
			CreatedAt: doc.CreatedAt,
		})
	}
	return msgs, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
