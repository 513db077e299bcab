package forms

type ChangePasswordForm struct {
	Old     string
	New     string
	Confirm string
	Err     string
}

func (f *ChangePasswordForm) Validate() error {
	err := join(
		required("current password", f.Old),
		required("new password", f.New),
		required("confirm password", f.Confirm),
	)
	if err != nil {
		return err
	}
	if f.New != f.Confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func (f *ChangePasswordForm) Submit(change func(oldPassword, newPassword string) error) error {
	f.Err = ""
	if err := f.Validate(); err != nil {
		f.Err = err.Error()
		return err
	}
	if err := change(f.Old, f.New); err != nil {
		f.Err = err.Error()
		return err
	}
	*f = ChangePasswordForm{}
	return nil
}

type LoginForm struct {
	Username string
	Password string
}

func (f *LoginForm) Validate() error {
	return join(required("username", f.Username), required("password", f.Password))
}

type RegisterForm struct {
	Username string
	Password string
	Confirm  string
}

func (f *RegisterForm) Validate() error {
	if err := join(required("username", f.Username), required("password", f.Password)); err != nil {
		return err
	}
	if f.Password != f.Confirm {
		return ErrPasswordMismatch
	}
	return nil
}
