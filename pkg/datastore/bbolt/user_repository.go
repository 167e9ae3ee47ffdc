package bbolt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/twelvedata/searchindex"
	"go.etcd.io/bbolt"

	"github.com/UnAfraid/wg-dash/pkg/user"
)

const (
	userBucket = "user"
)

type userRepository struct {
	db *bbolt.DB
}

func NewUserRepository(db *bbolt.DB) user.Repository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) FindOne(ctx context.Context, options *user.FindOneOptions) (*user.User, error) {
	return dbView(ctx, r.db, userBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*user.User, error) {
		if idOption := options.IdOption; idOption != nil {
			jsonState := bucket.Get([]byte(idOption.Id))
			if jsonState == nil {
				return nil, nil
			}
			return unmarshalUser(jsonState)
		} else if usernameOption := options.UsernameOption; usernameOption != nil {
			c := bucket.Cursor()
			for k, v := c.First(); k != nil; k, v = c.Next() {
				u, err := unmarshalUser(v)
				if err != nil {
					return nil, err
				}
				if strings.EqualFold(u.Username, usernameOption.Username) {
					return u, nil
				}
			}
		}

		return nil, nil
	})
}

func (r *userRepository) FindAll(ctx context.Context, options *user.FindOptions) ([]*user.User, error) {
	return dbView(ctx, r.db, userBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) ([]*user.User, error) {
		var users []*user.User
		var searchList searchindex.SearchList
		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			u, err := unmarshalUser(v)
			if err != nil {
				return nil, err
			}

			if len(options.Ids) != 0 && !slices.Contains(options.Ids, u.Id) {
				continue
			}

			if len(options.Query) != 0 {
				searchList = append(searchList, &searchindex.SearchItem{
					Key:  strings.ToLower(u.Username),
					Data: u,
				})
				continue
			}

			users = append(users, u)
		}

		if len(options.Query) != 0 && len(searchList) != 0 {
			searchIndex := searchindex.NewSearchIndex(searchList, len(searchList), nil, nil, true, nil)
			matches := searchIndex.Search(searchindex.SearchParams{
				Text:       strings.ToLower(options.Query),
				OutputSize: len(searchList),
				Matching:   searchindex.Beginning,
			})
			for _, match := range matches {
				users = append(users, match.(*user.User))
			}
		}

		return users, nil
	})
}

func (r *userRepository) Create(ctx context.Context, u *user.User) (*user.User, error) {
	return dbUpdate(ctx, r.db, userBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*user.User, error) {
		id := []byte(u.Id)
		if bucket.Get(id) != nil {
			return nil, user.ErrUserIdAlreadyExists
		}

		jsonState, err := json.Marshal(u)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal user: %w", err)
		}

		return u, bucket.Put(id, jsonState)
	})
}

func (r *userRepository) UpdatePassword(ctx context.Context, userId string, password string) (*user.User, error) {
	return dbUpdate(ctx, r.db, userBucket, func(tx *bbolt.Tx, bucket *bbolt.Bucket) (*user.User, error) {
		id := []byte(userId)
		jsonState := bucket.Get(id)
		if jsonState == nil {
			return nil, user.ErrUserNotFound
		}

		updatedUser, err := unmarshalUser(jsonState)
		if err != nil {
			return nil, err
		}

		updatedUser.Password = password
		updatedUser.UpdatedAt = time.Now()

		jsonState, err = json.Marshal(updatedUser)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal user: %w", err)
		}

		return updatedUser, bucket.Put(id, jsonState)
	})
}

func unmarshalUser(jsonState []byte) (*user.User, error) {
	var u *user.User
	if err := json.Unmarshal(jsonState, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return u, nil
}
