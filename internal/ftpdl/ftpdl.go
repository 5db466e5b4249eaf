// Package ftpdl is a thin wrapper over an existing FTP client library,
// per §1: FTP is explicitly out of scope as a download engine in its
// own right, just a third URL scheme the fetch CLI can route to.
package ftpdl

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"

	"fetchkit/internal/errs"
)

const dialTimeout = 15 * time.Second

// Download connects to the host in u, logs in (anonymously unless u
// carries userinfo), retrieves u's path, and streams it to outDir. It
// does not split the transfer into ranges; concurrency is always 1.
func Download(u *url.URL, outDir string) (string, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = fmt.Sprintf("%s:21", u.Hostname())
	}

	conn, err := ftp.DialTimeout(addr, dialTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: dialing %s: %v", errs.ConnectError, addr, err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return "", fmt.Errorf("%w: logging in to %s: %v", errs.ConnectError, addr, err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return "", fmt.Errorf("%w: RETR %s: %v", errs.IoError, u.Path, err)
	}
	defer resp.Close()

	outPath := filepath.Join(outDir, filepath.Base(u.Path))
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", errs.IoError, outPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", errs.IoError, outPath, err)
	}

	return outPath, nil
}
