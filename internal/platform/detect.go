package platform

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

const osReleasePath = "/etc/os-release"

// managerBinaries maps each package manager to the binary probed on PATH.
var managerBinaries = map[PackageManager]string{
	PMDnf:    "dnf",
	PMYum:    "yum",
	PMApt:    "apt",
	PMPacman: "pacman",
}

// managerPriority lists the probe order per OS family. An unknown OS tries
// everything so a usable backend can still be found.
var managerPriority = map[OSType][]PackageManager{
	OSFedora:  {PMDnf, PMYum},
	OSDebian:  {PMApt},
	OSUbuntu:  {PMApt},
	OSArch:    {PMPacman},
	OSUnknown: {PMDnf, PMYum, PMApt, PMPacman},
}

// Detect reads /etc/os-release, probes for a package manager, and collects
// kernel facts. Detection failures are never fatal: unmatched or unreadable
// inputs classify as unknown and are logged at warn level.
func Detect(logger *slog.Logger) *Platform {
	p := &Platform{
		OSType:         OSUnknown,
		PackageManager: PMUnknown,
		OSName:         "Unknown",
		OSVersion:      "Unknown",
		logger:         logger.With("component", "platform"),
	}

	f, err := os.Open(osReleasePath)
	if err != nil {
		p.logger.Warn("os-release unreadable, classifying as unknown", "path", osReleasePath, "error", err)
	} else {
		fields := parseOSRelease(f)
		f.Close()
		p.OSType = classifyOS(fields["ID"], fields["ID_LIKE"])
		if name := fields["NAME"]; name != "" {
			p.OSName = name
		}
		if version := fields["VERSION_ID"]; version != "" {
			p.OSVersion = version
		}
		if p.OSType == OSUnknown {
			p.logger.Warn("unsupported OS", "id", fields["ID"], "id_like", fields["ID_LIKE"])
		}
	}

	p.PackageManager = p.detectPackageManager()
	p.KernelVersion, p.Architecture = kernelFacts()
	p.systemd = newSystemdQuerier()

	p.logger.Info("platform detected",
		"os_type", p.OSType,
		"os_name", p.OSName,
		"os_version", p.OSVersion,
		"package_manager", p.PackageManager,
	)
	return p
}

// parseOSRelease reads KEY=value lines, stripping surrounding quotes.
func parseOSRelease(r io.Reader) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}

// classifyOS matches ID and ID_LIKE against the supported families.
// Ubuntu is checked before Debian: Ubuntu declares ID_LIKE=debian.
func classifyOS(id, idLike string) OSType {
	id = strings.ToLower(id)
	idLike = strings.ToLower(idLike)

	switch {
	case strings.Contains(id, "fedora"):
		return OSFedora
	case strings.Contains(id, "ubuntu"):
		return OSUbuntu
	case strings.Contains(id, "debian") || strings.Contains(idLike, "debian"):
		return OSDebian
	case strings.Contains(id, "arch") || strings.Contains(idLike, "arch"):
		return OSArch
	default:
		return OSUnknown
	}
}

func (p *Platform) detectPackageManager() PackageManager {
	for _, pm := range managerPriority[p.OSType] {
		if _, err := p.look(managerBinaries[pm]); err == nil {
			return pm
		}
	}
	p.log().Warn("no supported package manager found", "os_type", p.OSType)
	return PMUnknown
}

func kernelFacts() (kernel, arch string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "unknown", runtime.GOARCH
	}
	return unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Machine[:])
}
