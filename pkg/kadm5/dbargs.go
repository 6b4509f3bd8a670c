package kadm5

// DbArgs are database-specific arguments passed through to the KDC
// database module, such as the LDAP module's container DN settings.
// MIT forwards them to kadm5_init_with_*; Heimdal has no equivalent and
// ignores them.
type DbArgs struct {
	args []string
}

// DbArgsBuilder assembles a DbArgs value.
type DbArgsBuilder struct {
	args []string
	err  error
}

// NewDbArgs starts an empty argument list.
func NewDbArgs() *DbArgsBuilder {
	return &DbArgsBuilder{}
}

// Arg appends a name=value argument.
func (b *DbArgsBuilder) Arg(name, value string) *DbArgsBuilder {
	if b.err == nil {
		b.err = checkName(name)
	}
	if b.err == nil {
		b.err = checkName(value)
	}
	b.args = append(b.args, name+"="+value)
	return b
}

// Flag appends a bare argument with no value.
func (b *DbArgsBuilder) Flag(name string) *DbArgsBuilder {
	if b.err == nil {
		b.err = checkName(name)
	}
	b.args = append(b.args, name)
	return b
}

// Build finalizes the argument list.
func (b *DbArgsBuilder) Build() (*DbArgs, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &DbArgs{args: append([]string(nil), b.args...)}, nil
}
