package client

import (
	"encoding/json"
	"fmt"

	"github.com/anonto42/nano-midea/client/internal/cache"
)

// Operation is one of the remote operations the feed API exposes.
type Operation int

const (
	OpLogin Operation = iota
	OpRegister
	OpGetPosts
	OpGetPostByID
	OpGetUsers
	OpGetUserByID
	OpSearchUser
	OpLikePost
	OpCommentPost
	OpFollowUser
	OpAddPost
	opCount
)

type operationSpec struct {
	name     string
	field    string
	mutation bool
	entity   cache.EntityType
	document string
}

const postFields = `
      _id
      authorId
      content
      imgUrl
      tags
      comments {
        content
        username
        userId
        createdAt
      }
      likes {
        userId
        username
        createdAt
      }
      createdAt`

var operations = [opCount]operationSpec{
	OpLogin: {
		name: "Login", field: "login", mutation: true,
		document: `mutation Login($input: LoginInput) {
  login(input: $input) {
    access_token
    userId
    username
  }
}`,
	},
	OpRegister: {
		name: "Register", field: "register", mutation: true,
		document: `mutation Register($input: RegisterInput) {
  register(input: $input) {
    message
  }
}`,
	},
	OpGetPosts: {
		name: "GetPosts", field: "getPosts", entity: cache.TypePost,
		document: `query GetPosts {
  getPosts {` + postFields + `
      Author {
        _id
        name
        username
      }
  }
}`,
	},
	OpGetPostByID: {
		name: "GetPostById", field: "getPostById", entity: cache.TypePost,
		document: `query GetPostById($input: PostByIdInput) {
  getPostById(input: $input) {` + postFields + `
      Author {
        _id
        name
        username
      }
  }
}`,
	},
	OpGetUsers: {
		name: "GetUsers", field: "getUsers", entity: cache.TypeUser,
		document: `query GetUsers {
  getUsers {
    _id
    name
    username
  }
}`,
	},
	OpGetUserByID: {
		name: "GetUserById", field: "getUserById", entity: cache.TypeUser,
		document: `query GetUserById($input: GetUserByIdInput) {
  getUserById(input: $input) {
    _id
    name
    username
    email
    Followers {
      _id
    }
    Followings {
      _id
    }
    Posts {` + postFields + `
    }
  }
}`,
	},
	OpSearchUser: {
		name: "SearchUser", field: "searchUser", entity: cache.TypeUser,
		document: `query SearchUser($input: SearchUserInput) {
  searchUser(input: $input) {
    _id
    name
    username
    email
  }
}`,
	},
	OpLikePost: {
		name: "LikePost", field: "likePost", mutation: true,
		document: `mutation LikePost($input: LikeInput) {
  likePost(input: $input)
}`,
	},
	OpCommentPost: {
		name: "CommentPost", field: "commentPost", mutation: true,
		document: `mutation CommentPost($input: CommentInput) {
  commentPost(input: $input) {
    content
    username
    userId
    createdAt
  }
}`,
	},
	OpFollowUser: {
		name: "FollowUser", field: "followUser", mutation: true,
		document: `mutation FollowUser($input: FollowInput) {
  followUser(input: $input)
}`,
	},
	OpAddPost: {
		name: "AddPost", field: "addPost", mutation: true, entity: cache.TypePost,
		document: `mutation AddPost($input: AddPostInput) {
  addPost(input: $input) {` + postFields + `
      Author {
        _id
        name
        username
      }
  }
}`,
	},
}

func (op Operation) spec() operationSpec {
	if op < 0 || op >= opCount {
		panic(fmt.Sprintf("client: unknown operation %d", int(op)))
	}
	return operations[op]
}

// Name returns the GraphQL operation name.
func (op Operation) Name() string { return op.spec().name }

// Field returns the root field the operation selects.
func (op Operation) Field() string { return op.spec().field }

// Document returns the GraphQL document sent for the operation.
func (op Operation) Document() string { return op.spec().document }

// Mutation reports whether the operation changes server state.
func (op Operation) Mutation() bool { return op.spec().mutation }

func (op Operation) String() string { return op.Field() }

// OperationByName looks up an operation by its root field, e.g. "getPosts".
func OperationByName(field string) (Operation, bool) {
	for op := Operation(0); op < opCount; op++ {
		if operations[op].field == field {
			return op, true
		}
	}
	return 0, false
}

// Variables are the GraphQL variables of one request.
type Variables map[string]any

// Input wraps v in the {"input": v} shape every operation takes.
func Input(v any) Variables {
	return Variables{"input": v}
}

// QueryRef identifies a previously issued query so it can be re-executed.
type QueryRef struct {
	Op   Operation
	Vars Variables
}

// Key is the cache root key of the query, e.g. getPostById({"input":...}).
func (q QueryRef) Key() string {
	if len(q.Vars) == 0 {
		return q.Op.Field()
	}
	raw, err := json.Marshal(q.Vars)
	if err != nil {
		return q.Op.Field() + "(?)"
	}
	return q.Op.Field() + "(" + string(raw) + ")"
}

func (q QueryRef) root() cache.Key {
	return cache.Key{Type: cache.TypeQuery, ID: q.Key()}
}

// PostQuery is the getPostById query for postID.
func PostQuery(postID string) QueryRef {
	return QueryRef{Op: OpGetPostByID, Vars: Input(map[string]any{"postId": postID})}
}

// UserQuery is the getUserById query for userID.
func UserQuery(userID string) QueryRef {
	return QueryRef{Op: OpGetUserByID, Vars: Input(map[string]any{"userId": userID})}
}

// FeedQuery is the getPosts query.
func FeedQuery() QueryRef {
	return QueryRef{Op: OpGetPosts}
}
