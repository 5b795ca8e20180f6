package service

import (
	"strings"
	"time"

	"puptime/internal/model"
	"puptime/internal/repository"
	"puptime/pkg/errs"
	"puptime/pkg/jwt"
	"puptime/pkg/password"
)

// RegisterInput 注册输入
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	GoogleAuthID *string
	Gender       string
	BirthDay     *time.Time
}

// UpdateUserInput 部分更新用户输入，nil 表示未提供
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Gender   *string
	BirthDay *time.Time
}

// UserService 用户服务
type UserService struct {
	repo       *repository.UserRepository
	jwtService *jwt.JWTService
}

// NewUserService 创建UserService实例
func NewUserService(repo *repository.UserRepository, jwtService *jwt.JWTService) *UserService {
	return &UserService{repo: repo, jwtService: jwtService}
}

// Register 注册
// 用户名与邮箱大小写不敏感唯一；邮箱统一小写入库；注册成功直接签发token
func (s *UserService) Register(in RegisterInput) (*model.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" {
		return nil, "", errs.Validation("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", errs.Validation("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, "", errs.Validation("password must be at least 8 characters")
	}

	if taken, err := s.repo.UsernameExists(username, 0); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", errs.Conflict("a user with this username already exists")
	}
	if taken, err := s.repo.EmailExists(email, 0); err != nil {
		return nil, "", err
	} else if taken {
		return nil, "", errs.Conflict("a user with this email already exists")
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, "", errs.Internal(err, "hash password failed")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		GoogleAuthID: in.GoogleAuthID,
		Gender:       in.Gender,
		BirthDay:     in.BirthDay,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.jwtService.GenerateToken(user.ID, map[string]interface{}{"username": user.Username})
	if err != nil {
		return nil, "", errs.Internal(err, "generate token failed")
	}
	return user, token, nil
}

// Login 登录（邮箱+密码）
// 邮箱不存在与密码错误返回同样的错误，不暴露账号是否存在
func (s *UserService) Login(email, plainPassword string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plainPassword == "" {
		return nil, "", errs.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(email)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, "", errs.Authorization("invalid credentials, please check your email and password")
		}
		return nil, "", err
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", errs.Authorization("invalid credentials, please check your email and password")
	}

	token, err := s.jwtService.GenerateToken(u.ID, map[string]interface{}{"username": u.Username})
	if err != nil {
		return nil, "", errs.Internal(err, "generate token failed")
	}
	return u, token, nil
}

// Get 根据ID获取用户
func (s *UserService) Get(userID uint) (*model.User, error) {
	return s.repo.GetByID(userID)
}

// Search 按用户名子串搜索用户（加好友前的查找）
func (s *UserService) Search(keyword string) ([]*model.User, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errs.Validation("search keyword is required")
	}
	return s.repo.SearchByUsername(keyword, 20)
}

// Update 部分更新用户资料
// 仅本人可修改；用户名/邮箱变更时重新检查唯一性
func (s *UserService) Update(actorID, targetID uint, in UpdateUserInput) (*model.User, error) {
	if actorID != targetID {
		return nil, errs.Authorization("you can only modify your own profile")
	}

	user, err := s.repo.GetByID(targetID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, errs.Validation("username is required")
		}
		if taken, err := s.repo.UsernameExists(username, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, errs.Conflict("a user with this username already exists")
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, errs.Validation("a valid email is required")
		}
		if taken, err := s.repo.EmailExists(email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, errs.Conflict("a user with this email already exists")
		}
		user.Email = email
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, errs.Validation("password must be at least 8 characters")
		}
		hash, err := password.Hash(*in.Password)
		if err != nil {
			return nil, errs.Internal(err, "hash password failed")
		}
		user.PasswordHash = hash
	}
	if in.Gender != nil {
		user.Gender = *in.Gender
	}
	if in.BirthDay != nil {
		user.BirthDay = in.BirthDay
	}

	if err := s.repo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete 删除账号
// 仅本人可删除；级联删除其好友关系与全部任务数据
func (s *UserService) Delete(actorID, targetID uint) error {
	if actorID != targetID {
		return errs.Authorization("you can only delete your own account")
	}
	if _, err := s.repo.GetByID(targetID); err != nil {
		return err
	}
	return s.repo.DeleteCascade(targetID)
}
