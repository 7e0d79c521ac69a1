package platform

// Command construction for declarative services. The returned slices are
// plain argv vectors; privilege elevation is the runner's job and is never
// baked in here. A nil return means no backend is available and the caller
// must fail the operation before spawning anything.

// InstallCommand returns the package-manager invocation that installs pkgs
// without prompting.
func (p *Platform) InstallCommand(pkgs ...string) []string {
	if len(pkgs) == 0 {
		return nil
	}
	switch p.PackageManager {
	case PMDnf:
		return append([]string{"dnf", "install", "-y"}, pkgs...)
	case PMYum:
		return append([]string{"yum", "install", "-y"}, pkgs...)
	case PMApt:
		return append([]string{"apt", "install", "-y"}, pkgs...)
	case PMPacman:
		return append([]string{"pacman", "-S", "--noconfirm"}, pkgs...)
	default:
		return nil
	}
}

// RemoveCommand returns the package-manager invocation that removes pkgs
// without prompting.
func (p *Platform) RemoveCommand(pkgs ...string) []string {
	if len(pkgs) == 0 {
		return nil
	}
	switch p.PackageManager {
	case PMDnf:
		return append([]string{"dnf", "remove", "-y"}, pkgs...)
	case PMYum:
		return append([]string{"yum", "remove", "-y"}, pkgs...)
	case PMApt:
		return append([]string{"apt", "remove", "-y"}, pkgs...)
	case PMPacman:
		return append([]string{"pacman", "-R", "--noconfirm"}, pkgs...)
	default:
		return nil
	}
}

// UpdateCommand returns the package-list refresh invocation.
func (p *Platform) UpdateCommand() []string {
	switch p.PackageManager {
	case PMDnf:
		return []string{"dnf", "check-update"}
	case PMYum:
		return []string{"yum", "check-update"}
	case PMApt:
		return []string{"apt", "update"}
	case PMPacman:
		return []string{"pacman", "-Sy"}
	default:
		return nil
	}
}

// ServiceCommand returns the systemctl invocation for a lifecycle action.
func (p *Platform) ServiceCommand(action, unit string) []string {
	return []string{"systemctl", action, unit}
}
