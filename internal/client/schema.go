// internal/client/schema.go
//
// DDL for the `client` table, applied idempotently at boot.  New installs
// get the full schema; existing installs are untouched because every
// statement is IF NOT EXISTS.
package client

const createTable = `
CREATE TABLE IF NOT EXISTS client (
    id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    site_name       VARCHAR(190)    NOT NULL,
    domain_name     VARCHAR(190)    NOT NULL,
    contact_email   VARCHAR(190)    NOT NULL DEFAULT '',
    monthly_fee     DECIMAL(10,2)   NOT NULL DEFAULT 0,
    payment_status  ENUM('paid','unpaid') NOT NULL DEFAULT 'unpaid',
    payment_date    DATE            NULL,
    site_active     TINYINT(1)      NOT NULL DEFAULT 1,
    manual_override TINYINT(1)      NOT NULL DEFAULT 0,
    created_at      TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP
                                    ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_domain (domain_name)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Schema lists the DDL the owning component reports via Migrations().
var Schema = []string{createTable}
